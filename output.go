package versgen

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Field is a single rendered output value
type Field struct {
	Key   string
	Value string
}

// Fields returns the info as ordered key/value pairs. Absent optional values
// and unknown flags are left out.
func (i Info) Fields() []Field {
	var fields []Field
	add := func(key, value string) {
		fields = append(fields, Field{Key: key, Value: value})
	}
	addPtr := func(key string, value *string) {
		if value != nil {
			add(key, *value)
		}
	}
	addTristate := func(key string, value Tristate) {
		if value.Known() {
			add(key, value.String())
		}
	}

	add("name", i.Name)
	add("commit", i.Commit)
	addPtr("commit_main", i.CommitMain)
	addTristate("is_main_here", i.IsMainHere)
	addPtr("git_describe_tags", i.GitDescribeTags)
	add("tag_latest", i.TagLatest)
	add("distance", i.Distance)
	addPtr("dash_distance", i.DashDistance)
	addPtr("tag_distance", i.TagDistance)
	addPtr("tag_head", i.TagHead)
	add("tag_latest_ltrimv", i.TagLatestLtrimv)
	addPtr("tag_distance_ltrimv", i.TagDistanceLtrimv)
	addPtr("tag_head_ltrimv", i.TagHeadLtrimv)
	addTristate("is_push", i.IsPush)
	addTristate("is_tag", i.IsTag)
	addTristate("is_main", i.IsMain)
	addTristate("is_push_tag", i.IsPushTag)
	addTristate("is_push_main", i.IsPushMain)
	addPtr("rust_crate_version", i.RustCrateVersion)
	addPtr("python_module_version", i.PythonModuleVersion)
	addPtr("override_version_tagged", i.Overrides.VersionTagged)
	addPtr("override_version_commit", i.Overrides.VersionCommit)
	addPtr("override_version_docker_ci", i.Overrides.VersionDockerCI)
	addPtr("version_tagged", i.VersionTagged)
	addPtr("version_commit", i.VersionCommit)
	add("version_docker_ci", i.VersionDockerCI)
	addPtr("version_mismatch", i.VersionMismatch)
	add("rpm_basename", i.RPMBasename)
	add("deb_basename", i.DEBBasename)

	return fields
}

// WriteFields writes one key=value line per field
func WriteFields(w io.Writer, fields []Field) error {
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%s=%s\n", f.Key, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// AppendOutputFile appends the fields to a pipeline output file such as $GITHUB_OUTPUT
func AppendOutputFile(path string, fields []Field) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()

	if err := WriteFields(f, fields); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// Annotations renders every mismatch as a workflow command, ::error when the
// run is fatal and ::warning otherwise.
func (i Info) Annotations() []string {
	level := "warning"
	if i.Fatal() {
		level = "error"
	}

	out := make([]string, 0, len(i.Mismatches))
	for _, m := range i.Mismatches {
		// Manifest messages already carry their "file=...::" parameters
		if strings.Contains(m.Message, "::") {
			out = append(out, fmt.Sprintf("::%s %s", level, m.Message))
		} else {
			out = append(out, fmt.Sprintf("::%s::%s", level, m.Message))
		}
	}
	return out
}
