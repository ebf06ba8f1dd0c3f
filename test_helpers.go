package versgen

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepoCommit writes filename and commits it, returning the commit hash
func testRepoCommit(repo *git.Repository, filename, content string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	err = writeFile(workTree.Filesystem, filename, content)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	_, err = workTree.Add(filename)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Commit "+filename, &git.CommitOptions{Author: testSignature})
}

// testRepoTagHead tags HEAD with a lightweight tag
func testRepoTagHead(repo *git.Repository, tag string) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	_, err = repo.CreateTag(tag, head.Hash(), nil)
	return err
}

// testRepoAnnotatedTagHead tags HEAD with an annotated tag
func testRepoAnnotatedTagHead(repo *git.Repository, tag string) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	_, err = repo.CreateTag(tag, head.Hash(), &git.CreateTagOptions{
		Tagger:  testSignature,
		Message: "Release " + tag,
	})
	return err
}

// testRepoSingleCommitPastRelease creates a commit tagged v1.0.0 followed by one more commit
func testRepoSingleCommitPastRelease(repo *git.Repository) (*git.Repository, error) {
	if _, err := testRepoCommit(repo, "initial.txt", "Initial content"); err != nil {
		return nil, err
	}
	if err := testRepoTagHead(repo, "v1.0.0"); err != nil {
		return nil, err
	}
	if _, err := testRepoCommit(repo, "post-release.txt", "Post release content"); err != nil {
		return nil, err
	}
	return repo, nil
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
