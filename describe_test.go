package versgen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDescribe(t *testing.T) {
	t.Run("Commits after tag", func(t *testing.T) {
		d := ParseDescribe("1.3.1-20-gc5f7a99")
		require.Equal(t, "1.3.1-20-gc5f7a99", d.Raw)
		require.Equal(t, "1.3.1", d.TagLatest)
		require.Equal(t, "20", d.Distance)
		require.Nil(t, d.TagHead)
	})

	t.Run("HEAD on tag", func(t *testing.T) {
		d := ParseDescribe("v1.0.0")
		require.Equal(t, "v1.0.0", d.TagLatest)
		require.Equal(t, "0", d.Distance)
		require.NotNil(t, d.TagHead)
		require.Equal(t, "v1.0.0", *d.TagHead)
	})

	t.Run("Tag with dashes", func(t *testing.T) {
		d := ParseDescribe("v2.0.0-rc.1-3-gabc1234")
		require.Equal(t, "v2.0.0-rc.1", d.TagLatest)
		require.Equal(t, "3", d.Distance)
		require.Nil(t, d.TagHead)
	})

	t.Run("Bare tag with dashes", func(t *testing.T) {
		d := ParseDescribe("v2.0.0-rc.1")
		require.Equal(t, "v2.0.0-rc.1", d.TagLatest)
		require.Equal(t, "0", d.Distance)
		require.Equal(t, "v2.0.0-rc.1", *d.TagHead)
	})

	t.Run("Tag shaped like a describe suffix", func(t *testing.T) {
		// Known limitation: indistinguishable from a real describe result
		d := ParseDescribe("build-5-gbeef")
		require.Equal(t, "build", d.TagLatest)
		require.Equal(t, "5", d.Distance)
		require.Nil(t, d.TagHead)
	})

	t.Run("Uppercase hash is not a suffix", func(t *testing.T) {
		d := ParseDescribe("v1-2-gABC")
		require.Equal(t, "v1-2-gABC", d.TagLatest)
		require.Equal(t, "0", d.Distance)
	})
}

func TestLtrimv(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"v1.0.0", "1.0.0"},
		{"1.0.0", "1.0.0"},
		{"vv1", "v1"},
		{"v", ""},
		{"", ""},
		{"version-1", "ersion-1"},
		{"V1.0.0", "V1.0.0"},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			require.Equal(t, test.expected, Ltrimv(test.input))
		})
	}

	t.Run("Idempotent on trimmed strings", func(t *testing.T) {
		once := Ltrimv("v1.0.0")
		require.Equal(t, once, Ltrimv(once))
	})
}
