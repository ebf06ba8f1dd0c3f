// The tag lookup in this file is adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0. See NOTICE file for full attribution.

package versgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// shortHashLen matches the default abbreviation of `git rev-parse --short`
const shortHashLen = 7

// ErrNoTags is returned by Describe when no tag is reachable from HEAD
var ErrNoTags = errors.New("no tags reachable from HEAD")

// ExecGit runs the git executable inside Dir
type ExecGit struct {
	Dir string
}

var _ Git = (*ExecGit)(nil)

// NewExecGit returns a Git backed by the git binary
func NewExecGit(dir string) *ExecGit {
	return &ExecGit{Dir: dir}
}

func (g *ExecGit) Describe(ctx context.Context) (string, error) {
	return g.run(ctx, "describe", "--tags")
}

func (g *ExecGit) RevParse(ctx context.Context, ref string) (string, error) {
	return g.run(ctx, "rev-parse", "--short", ref)
}

func (g *ExecGit) Unshallow(ctx context.Context) error {
	_, err := g.run(ctx, "fetch", "--unshallow", "origin")
	return err
}

func (g *ExecGit) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("running git %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return "", fmt.Errorf("running git %s: %w", strings.Join(args, " "), err)
	}

	return strings.TrimSpace(string(out)), nil
}

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// NativeGit answers the queries with go-git, without a git binary
type NativeGit struct {
	repo *git.Repository
}

var _ Git = (*NativeGit)(nil)

func NewNativeGit(repo *git.Repository) *NativeGit {
	return &NativeGit{repo: repo}
}

func (g *NativeGit) RevParse(_ context.Context, ref string) (string, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", ref, err)
	}
	return shortHash(*hash), nil
}

// Describe mimics `git describe --tags`: the nearest tagged commit is found
// breadth-first from HEAD and the distance is the number of commits reachable
// from HEAD but not from that tag.
func (g *NativeGit) Describe(ctx context.Context) (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}

	tags, err := tagsByCommit(g.repo)
	if err != nil {
		return "", fmt.Errorf("listing tags: %w", err)
	}
	if len(tags) == 0 {
		return "", ErrNoTags
	}

	headCommit, err := g.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("getting commit object: %w", err)
	}

	var tagged *object.Commit
	var tag string
	err = object.NewCommitIterBSF(headCommit, nil, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if names, ok := tags[c.Hash]; ok {
			tagged = c
			tag = preferredTag(names)
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return "", fmt.Errorf("walking history: %w", err)
	}
	if tagged == nil {
		return "", ErrNoTags
	}

	distance, err := exclusiveAncestors(ctx, headCommit, tagged)
	if err != nil {
		return "", err
	}
	if distance == 0 {
		return tag, nil
	}

	return fmt.Sprintf("%s-%d-g%s", tag, distance, shortHash(head.Hash())), nil
}

// Unshallow refreshes origin and its tags. go-git cannot deepen an existing
// shallow clone, so this is only as good as the refs the remote sends.
func (g *NativeGit) Unshallow(ctx context.Context) error {
	err := g.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.AllTags,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// tagsByCommit maps each tagged commit to the names of its tags. Annotated
// tags are peeled to their target.
func tagsByCommit(repo *git.Repository) (map[plumbing.Hash][]string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, err
	}

	byCommit := make(map[plumbing.Hash][]string)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		name := ref.Name().Short()
		obj, err := repo.TagObject(ref.Hash())
		switch err {
		case nil:
			// Annotated tag
			byCommit[obj.Target] = append(byCommit[obj.Target], name)
		case plumbing.ErrObjectNotFound:
			// Lightweight tag
			byCommit[ref.Hash()] = append(byCommit[ref.Hash()], name)
		default:
			return err
		}
		return nil
	})

	return byCommit, err
}

// exclusiveAncestors counts the commits reachable from head but not from base
func exclusiveAncestors(ctx context.Context, head, base *object.Commit) (int, error) {
	excluded := make(map[plumbing.Hash]bool)
	err := object.NewCommitPreorderIter(base, nil, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		excluded[c.Hash] = true
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking tag history: %w", err)
	}

	count := 0
	err = object.NewCommitPreorderIter(head, excluded, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking head history: %w", err)
	}

	return count, nil
}

// preferredTag picks among tags on the same commit: highest semantic version
// first, then non-semver tags in reverse lexical order.
func preferredTag(names []string) string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, erri := semver.ParseTolerant(sorted[i])
		vj, errj := semver.ParseTolerant(sorted[j])
		switch {
		case erri == nil && errj == nil:
			if !vi.EQ(vj) {
				return vi.GT(vj)
			}
			return sorted[i] > sorted[j]
		case erri == nil:
			return true
		case errj == nil:
			return false
		default:
			return sorted[i] > sorted[j]
		}
	})
	return sorted[0]
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:shortHashLen]
}
