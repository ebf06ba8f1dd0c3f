// Package versgen derives deterministic version identifiers for a project from its
// git history, the CI event that triggered the build, and optional package manifests.
//
// The work is split into pure stages: RawFacts are gathered once, the describe
// output is parsed into a Describe, and Evaluate turns everything into an Info.
package versgen

import (
	"context"

	"go.uber.org/zap"
)

// Ecosystem identifies a package manifest format.
type Ecosystem string

const (
	EcosystemRust   Ecosystem = "rust"
	EcosystemPython Ecosystem = "python"
)

// Manifest is the name/version pair declared by an in-repo package manifest
type Manifest struct {
	Ecosystem Ecosystem
	// File is the manifest basename, e.g. "Cargo.toml"
	File    string
	Name    *string
	Version string
}

// Overrides replace the computed version fields when set
type Overrides struct {
	VersionTagged   *string `json:"version_tagged,omitempty"`
	VersionCommit   *string `json:"version_commit,omitempty"`
	VersionDockerCI *string `json:"version_docker_ci,omitempty"`
}

// Environment holds the CI signals consumed by the evaluation
type Environment struct {
	IsPush    Tristate
	IsTag     Tristate
	IsMain    Tristate
	Overrides Overrides
}

// RawFacts are the inputs gathered once per invocation
type RawFacts struct {
	// Commit is the short hash of HEAD
	Commit string

	// CommitMain is the short hash of the main branch tip, nil when no
	// main/master ref could be resolved
	CommitMain *string

	// DescribeOutput is the raw output of `git describe --tags`, nil when the
	// repository has no tags
	DescribeOutput *string

	// Manifests are ordered by ecosystem priority (Rust first, then Python)
	Manifests []Manifest

	// Basename is the repository directory name, used when no manifest declares one
	Basename string

	Env Environment
}

// Mismatch is a version drift diagnostic
type Mismatch struct {
	// File is the manifest involved, empty for tag lineage problems
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// Info is the evaluated set of version fields. Its JSON form carries the same
// keys as Fields, with flags as booleans and unknown flags left out.
type Info struct {
	Name       string   `json:"name"`
	Commit     string   `json:"commit"`
	CommitMain *string  `json:"commit_main,omitempty"`
	IsMainHere Tristate `json:"is_main_here,omitempty"`

	GitDescribeTags *string `json:"git_describe_tags,omitempty"`
	TagLatest       string  `json:"tag_latest"`
	Distance        string  `json:"distance"`
	DashDistance    *string `json:"dash_distance,omitempty"`
	TagDistance     *string `json:"tag_distance,omitempty"`
	TagHead         *string `json:"tag_head,omitempty"`

	TagLatestLtrimv   string  `json:"tag_latest_ltrimv"`
	TagDistanceLtrimv *string `json:"tag_distance_ltrimv,omitempty"`
	TagHeadLtrimv     *string `json:"tag_head_ltrimv,omitempty"`

	IsPush     Tristate `json:"is_push,omitempty"`
	IsTag      Tristate `json:"is_tag,omitempty"`
	IsMain     Tristate `json:"is_main,omitempty"`
	IsPushTag  Tristate `json:"is_push_tag,omitempty"`
	IsPushMain Tristate `json:"is_push_main,omitempty"`

	RustCrateVersion    *string `json:"rust_crate_version,omitempty"`
	PythonModuleVersion *string `json:"python_module_version,omitempty"`

	Overrides Overrides `json:"overrides"`

	VersionTagged   *string `json:"version_tagged,omitempty"`
	VersionCommit   *string `json:"version_commit,omitempty"`
	VersionDockerCI string  `json:"version_docker_ci"`

	// VersionMismatch is the highest priority diagnostic, see Mismatches for all of them
	VersionMismatch *string    `json:"version_mismatch,omitempty"`
	Mismatches      []Mismatch `json:"mismatches,omitempty"`

	RPMBasename string `json:"rpm_basename"`
	DEBBasename string `json:"deb_basename"`
}

// Fatal reports whether the mismatches must fail the run: drift is only
// fatal when a tag is being pushed.
func (i Info) Fatal() bool {
	return i.VersionMismatch != nil && i.IsPushTag == True
}

// GatherOptions configures fact gathering
type GatherOptions struct {
	// Dir is the repository working directory
	Dir string

	// Git executes the repository queries; required
	Git Git

	// Env carries the already-parsed CI signals
	Env Environment

	// Unshallow fetches the full history first so describe can see older tags
	Unshallow bool

	Logger *zap.Logger
}

// Git is the set of read-only repository queries the gatherer needs
type Git interface {
	// Describe returns the output of `git describe --tags`
	Describe(ctx context.Context) (string, error)

	// RevParse returns the short hash of ref
	RevParse(ctx context.Context, ref string) (string, error)

	// Unshallow converts a shallow clone into a complete one
	Unshallow(ctx context.Context) error
}
