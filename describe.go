package versgen

import (
	"regexp"
	"strings"
)

// describeRe splits `git describe --tags` output. The tag group is greedy so
// tags containing dashes keep them; a tag that itself ends in -N-gHEX cannot be
// told apart from a real describe suffix.
var describeRe = regexp.MustCompile(`^(?P<tag>.*)-(?P<distance>\d+)-g(?P<commit>[0-9a-f]+)$`)

// Describe is the parsed form of `git describe --tags`
type Describe struct {
	Raw       string
	TagLatest string
	Distance  string
	// TagHead is set only when HEAD is exactly on TagLatest
	TagHead *string
}

// ParseDescribe parses describe output. Anything not ending in -N-gHEX is
// taken as a bare tag sitting on HEAD.
func ParseDescribe(s string) Describe {
	if m := describeRe.FindStringSubmatch(s); m != nil {
		return Describe{
			Raw:       s,
			TagLatest: m[describeRe.SubexpIndex("tag")],
			Distance:  m[describeRe.SubexpIndex("distance")],
		}
	}

	tag := s
	return Describe{
		Raw:       s,
		TagLatest: s,
		Distance:  "0",
		TagHead:   &tag,
	}
}

// Ltrimv strips a single leading "v"
func Ltrimv(s string) string {
	return strings.TrimPrefix(s, "v")
}

func ltrimvPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Ltrimv(*s)
	return &v
}
