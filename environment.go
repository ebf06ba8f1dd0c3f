package versgen

import (
	"os"
	"strings"
)

// Environment variable names consumed by EnvironmentFromLookup.
const (
	EnvEventName             = "GITHUB_EVENT_NAME"
	EnvRef                   = "GITHUB_REF"
	EnvOutput                = "GITHUB_OUTPUT"
	EnvOverrideVersionTagged = "OVERRIDE_VERSION_TAGGED"
	EnvOverrideVersionCommit = "OVERRIDE_VERSION_COMMIT"
	EnvOverrideDockerCI      = "OVERRIDE_VERSION_DOCKER_CI"
)

const (
	eventPush     = "push"
	refTagsPrefix = "refs/tags/"
)

var mainRefs = []string{"refs/heads/main", "refs/heads/master"}

// LookupFunc has the signature of os.LookupEnv
type LookupFunc func(key string) (string, bool)

// EnvironmentFromLookup builds the CI signals from lookup. Variables that are
// unset or empty leave their flags Unknown and their overrides absent.
func EnvironmentFromLookup(lookup LookupFunc) Environment {
	var env Environment

	if event, ok := lookupNonEmpty(lookup, EnvEventName); ok {
		env.IsPush = TristateOf(event == eventPush)
	}

	if ref, ok := lookupNonEmpty(lookup, EnvRef); ok {
		env.IsTag = TristateOf(strings.HasPrefix(ref, refTagsPrefix))
		env.IsMain = TristateOf(isMainRef(ref))
	}

	env.Overrides = Overrides{
		VersionTagged:   lookupPtr(lookup, EnvOverrideVersionTagged),
		VersionCommit:   lookupPtr(lookup, EnvOverrideVersionCommit),
		VersionDockerCI: lookupPtr(lookup, EnvOverrideDockerCI),
	}

	return env
}

// ChainLookup returns a lookup that tries each function in order
func ChainLookup(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

// MapLookup adapts a map, such as one read from a dotenv file
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// ProcessLookup reads the process environment
func ProcessLookup() LookupFunc {
	return os.LookupEnv
}

func isMainRef(ref string) bool {
	for _, r := range mainRefs {
		if ref == r {
			return true
		}
	}
	return false
}

func lookupNonEmpty(lookup LookupFunc, key string) (string, bool) {
	if lookup == nil {
		return "", false
	}
	v, ok := lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func lookupPtr(lookup LookupFunc, key string) *string {
	v, ok := lookupNonEmpty(lookup, key)
	if !ok {
		return nil
	}
	return &v
}
