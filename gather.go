package versgen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// MainRefs are tried in order to find the main branch tip
var MainRefs = []string{"origin/main", "origin/master", "main", "master"}

// Gather runs the repository queries and manifest reads once. Only the HEAD
// lookup and malformed manifests are errors; everything else that fails is
// recorded as absent.
func Gather(ctx context.Context, opts GatherOptions) (RawFacts, error) {
	if opts.Git == nil {
		return RawFacts{}, errors.New("git backend is required")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return RawFacts{}, fmt.Errorf("resolving repository path: %w", err)
	}

	if opts.Unshallow {
		if err := opts.Git.Unshallow(ctx); err != nil {
			log.Debug("unshallow skipped", zap.Error(err))
		}
	}

	commit, err := opts.Git.RevParse(ctx, "HEAD")
	if err != nil {
		return RawFacts{}, fmt.Errorf("resolving HEAD commit: %w", err)
	}

	facts := RawFacts{
		Commit:   commit,
		Basename: filepath.Base(abs),
		Env:      opts.Env,
	}

	for _, ref := range MainRefs {
		c, err := opts.Git.RevParse(ctx, ref)
		if err != nil {
			log.Debug("main ref not found", zap.String("ref", ref), zap.Error(err))
			continue
		}
		facts.CommitMain = &c
		log.Debug("main branch tip", zap.String("ref", ref), zap.String("commit", c))
		break
	}

	if out, err := opts.Git.Describe(ctx); err != nil {
		log.Debug("no describe output", zap.Error(err))
	} else {
		facts.DescribeOutput = &out
	}

	facts.Manifests, err = ReadManifests(abs)
	if err != nil {
		return RawFacts{}, err
	}
	for _, m := range facts.Manifests {
		log.Debug("manifest found",
			zap.String("file", m.File),
			zap.String("version", m.Version))
	}

	return facts, nil
}
