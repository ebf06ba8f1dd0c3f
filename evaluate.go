package versgen

import (
	"fmt"
	"strconv"
)

const (
	dockerTagLatest = "latest"
	dockerTagNull   = "null"
)

// Evaluate computes the version fields from the gathered facts. It is pure:
// facts is never modified and evaluating the same facts twice yields equal results.
func Evaluate(facts RawFacts) Info {
	info := Info{
		Commit:     facts.Commit,
		CommitMain: copyPtr(facts.CommitMain),
		IsPush:     facts.Env.IsPush,
		IsTag:      facts.Env.IsTag,
		IsMain:     facts.Env.IsMain,
		Overrides:  facts.Env.Overrides,
	}

	info.IsPushTag = info.IsPush.And(info.IsTag)
	info.IsPushMain = info.IsPush.And(info.IsMain)
	if facts.CommitMain != nil {
		info.IsMainHere = TristateOf(*facts.CommitMain == facts.Commit)
	}

	if facts.DescribeOutput != nil {
		applyDescribe(&info, ParseDescribe(*facts.DescribeOutput))
	}

	info.Name = facts.Basename
	if name := manifestName(facts.Manifests); name != "" {
		info.Name = name
	}
	for _, m := range facts.Manifests {
		version := m.Version
		switch m.Ecosystem {
		case EcosystemRust:
			info.RustCrateVersion = &version
		case EcosystemPython:
			info.PythonModuleVersion = &version
		}
	}

	selectVersions(&info)
	info.RPMBasename, info.DEBBasename = basenames(info)
	info.Mismatches = mismatches(info, facts.Manifests)
	if len(info.Mismatches) > 0 {
		// Keep the first manifest mismatch (Rust before Python) rather than the last one checked
		msg := info.Mismatches[0].Message
		if info.IsPushTag == True && info.IsMainHere != True {
			msg = info.Mismatches[len(info.Mismatches)-1].Message
		}
		info.VersionMismatch = &msg
	}

	return info
}

func applyDescribe(info *Info, d Describe) {
	raw := d.Raw
	dash := "-" + d.Distance
	tagDistance := d.TagLatest + dash

	info.GitDescribeTags = &raw
	info.TagLatest = d.TagLatest
	info.Distance = d.Distance
	info.DashDistance = &dash
	info.TagDistance = &tagDistance
	info.TagHead = copyPtr(d.TagHead)

	info.TagLatestLtrimv = Ltrimv(d.TagLatest)
	info.TagDistanceLtrimv = ltrimvPtr(&tagDistance)
	info.TagHeadLtrimv = ltrimvPtr(d.TagHead)
}

// manifestName returns the first name declared by a manifest
func manifestName(manifests []Manifest) string {
	for _, m := range manifests {
		if m.Name != nil && *m.Name != "" {
			return *m.Name
		}
	}
	return ""
}

// selectVersions applies the event precedence: tag push, then main push, then anything else
func selectVersions(info *Info) {
	o := info.Overrides
	switch {
	case info.IsPushTag == True:
		info.VersionTagged = firstSet(o.VersionTagged, info.TagHeadLtrimv)
		info.VersionCommit = firstSet(o.VersionCommit, &info.TagLatestLtrimv)
		info.VersionDockerCI = *firstSet(o.VersionDockerCI, &info.TagLatestLtrimv)
	case info.IsPushMain == True:
		// A push to main sitting exactly on a tag was already versioned by the tag push.
		if n, err := strconv.Atoi(info.Distance); err == nil && n > 0 {
			info.VersionCommit = firstSet(o.VersionCommit, info.TagDistanceLtrimv)
		}
		latest := dockerTagLatest
		info.VersionDockerCI = *firstSet(o.VersionDockerCI, &latest)
	default:
		null := dockerTagNull
		info.VersionDockerCI = *firstSet(o.VersionDockerCI, &null)
	}
}

func basenames(info Info) (rpm, deb string) {
	switch {
	case info.VersionCommit != nil:
		return fmt.Sprintf("%s-%s", info.Name, *info.VersionCommit),
			fmt.Sprintf("%s_%s", info.Name, *info.VersionCommit)
	case info.TagDistanceLtrimv != nil:
		return fmt.Sprintf("%s-%s-%s", info.Name, *info.TagDistanceLtrimv, info.Commit),
			fmt.Sprintf("%s_%s-%s", info.Name, *info.TagDistanceLtrimv, info.Commit)
	default:
		return info.Name, info.Name
	}
}

// mismatches lists manifest drift in ecosystem order, followed by the tag
// lineage problem if there is one.
func mismatches(info Info, manifests []Manifest) []Mismatch {
	var out []Mismatch

	release := info.IsPushTag == True || info.IsPushMain == True
	if release && info.GitDescribeTags != nil {
		for _, m := range manifests {
			if m.Version == info.TagLatestLtrimv {
				continue
			}
			out = append(out, Mismatch{
				File: m.File,
				Message: fmt.Sprintf("file=%s::Version mismatch: tag %s != %s from %s",
					m.File, info.TagLatestLtrimv, m.Version, m.File),
			})
		}
	}

	if info.IsPushTag == True && info.IsMainHere != True {
		mainAt := "unknown"
		if info.CommitMain != nil {
			mainAt = strconv.Quote(*info.CommitMain)
		}
		out = append(out, Mismatch{
			Message: fmt.Sprintf("Version tag %s pushed over %s, but main branch is at %s",
				info.TagLatest, info.Commit, mainAt),
		})
	}

	return out
}

func firstSet(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return copyPtr(v)
		}
	}
	return nil
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
