package versgen

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fieldMap(info Info) map[string]string {
	m := make(map[string]string)
	for _, f := range info.Fields() {
		m[f.Key] = f.Value
	}
	return m
}

func TestFields(t *testing.T) {
	t.Run("Optional fields omitted", func(t *testing.T) {
		info := Evaluate(baseFacts(nil))
		fields := fieldMap(info)

		require.Equal(t, "project", fields["name"])
		require.Equal(t, "true", fields["is_main_here"])
		require.Equal(t, "", fields["tag_latest"])
		require.Equal(t, "null", fields["version_docker_ci"])
		for _, key := range []string{"tag_head", "tag_distance", "version_commit", "version_tagged", "version_mismatch", "is_push", "is_push_tag"} {
			_, ok := fields[key]
			require.False(t, ok, "unexpected field %s", key)
		}
	})

	t.Run("Order", func(t *testing.T) {
		facts := baseFacts(strPtr("v1.0.0"))
		facts.Env = pushTag()
		info := Evaluate(facts)

		var keys []string
		for _, f := range info.Fields() {
			keys = append(keys, f.Key)
		}
		require.Equal(t, []string{
			"name", "commit", "commit_main", "is_main_here", "git_describe_tags",
			"tag_latest", "distance", "dash_distance", "tag_distance", "tag_head",
			"tag_latest_ltrimv", "tag_distance_ltrimv", "tag_head_ltrimv",
			"is_push", "is_tag", "is_main", "is_push_tag", "is_push_main",
			"version_tagged", "version_commit", "version_docker_ci",
			"rpm_basename", "deb_basename",
		}, keys)
	})
}

func TestWriteFields(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFields(&buf, []Field{{Key: "name", Value: "project"}, {Key: "distance", Value: "0"}})
	require.NoError(t, err)
	require.Equal(t, "name=project\ndistance=0\n", buf.String())
}

func TestAppendOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o644))

	err := AppendOutputFile(path, []Field{{Key: "version_commit", Value: "1.0.0"}})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "existing=1\nversion_commit=1.0.0\n", string(content))

	err = AppendOutputFile(filepath.Join(t.TempDir(), "missing", "file"), nil)
	require.Error(t, err)
}

func TestAnnotations(t *testing.T) {
	t.Run("Error on tag push", func(t *testing.T) {
		facts := baseFacts(strPtr("v1.0.0"))
		facts.Env = pushTag()
		facts.Manifests = []Manifest{{Ecosystem: EcosystemRust, File: CargoManifestFile, Version: "9.7"}}
		info := Evaluate(facts)

		require.Equal(t, []string{
			"::error file=Cargo.toml::Version mismatch: tag 1.0.0 != 9.7 from Cargo.toml",
		}, info.Annotations())
	})

	t.Run("Warning on main push", func(t *testing.T) {
		facts := baseFacts(strPtr("v1.0.0-1-gabc1234"))
		facts.Env = pushMain()
		facts.Manifests = []Manifest{{Ecosystem: EcosystemPython, File: SetupCfgFile, Version: "9.7"}}
		info := Evaluate(facts)

		require.Equal(t, []string{
			"::warning file=setup.cfg::Version mismatch: tag 1.0.0 != 9.7 from setup.cfg",
		}, info.Annotations())
	})

	t.Run("Lineage message", func(t *testing.T) {
		facts := baseFacts(strPtr("v1.0.0"))
		facts.CommitMain = nil
		facts.Env = pushTag()
		info := Evaluate(facts)

		require.Equal(t, []string{
			"::error::Version tag v1.0.0 pushed over abc1234, but main branch is at unknown",
		}, info.Annotations())
	})

	t.Run("Nothing to report", func(t *testing.T) {
		require.Empty(t, Evaluate(baseFacts(nil)).Annotations())
	})
}

func TestInfoJSON(t *testing.T) {
	t.Run("Typed flags and mismatches", func(t *testing.T) {
		facts := baseFacts(strPtr("v1.0.0-3-gabc1234"))
		facts.Env = pushMain()
		facts.Manifests = []Manifest{{Ecosystem: EcosystemPython, File: SetupCfgFile, Version: "9.7"}}

		out, err := json.Marshal(Evaluate(facts))
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(out, &doc))
		require.Equal(t, true, doc["is_push_main"])
		require.Equal(t, false, doc["is_push_tag"])
		require.Equal(t, true, doc["is_main_here"])
		require.Equal(t, "1.0.0-3", doc["version_commit"])
		require.Equal(t, "9.7", doc["python_module_version"])
		require.Equal(t, []any{map[string]any{
			"file":    SetupCfgFile,
			"message": "file=setup.cfg::Version mismatch: tag 1.0.0 != 9.7 from setup.cfg",
		}}, doc["mismatches"])
	})

	t.Run("Unknown flags and absent values omitted", func(t *testing.T) {
		out, err := json.Marshal(Evaluate(baseFacts(nil)))
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(out, &doc))
		for _, key := range []string{"is_push", "is_tag", "tag_head", "version_commit", "version_mismatch", "mismatches"} {
			require.NotContains(t, doc, key)
		}
		require.Equal(t, "null", doc["version_docker_ci"])
		require.Equal(t, map[string]any{}, doc["overrides"])
	})
}
