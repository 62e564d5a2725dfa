// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepo is a throwaway repository on disk for fetch tests.
type GitRepo struct {
	Dir  string
	t    testing.TB
	repo *git.Repository
}

var signature = object.Signature{
	Name:  "recipekit tests",
	Email: "tests@recipekit.invalid",
	When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

// RequireGit skips the test when no git executable is available. go-git's
// file transport runs git-upload-pack for local clones.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("skipping: git not found in PATH")
	}
}

// NewGitRepo initialises an empty repository whose default branch is main.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "origin")
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	return &GitRepo{Dir: dir, t: t, repo: repo}
}

// Commit writes files relative to the repository root, commits them and
// returns the commit hash.
func (r *GitRepo) Commit(msg string, files map[string]string) string {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("failed to open worktree: %v", err)
	}
	for name, content := range files {
		path := filepath.Join(r.Dir, filepath.FromSlash(name))
		MustMkdirAll(r.t, filepath.Dir(path), 0o755)
		MustWriteFile(r.t, path, []byte(content), 0o644)
		if _, err := wt.Add(name); err != nil {
			r.t.Fatalf("failed to stage %s: %v", name, err)
		}
	}
	sig := signature
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: &sig, AllowEmptyCommits: true})
	if err != nil {
		r.t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

// Tag creates a lightweight tag at rev.
func (r *GitRepo) Tag(name, rev string) {
	r.t.Helper()
	if _, err := r.repo.CreateTag(name, plumbing.NewHash(rev), nil); err != nil {
		r.t.Fatalf("failed to create tag %s: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag object at rev.
func (r *GitRepo) AnnotatedTag(name, rev string) {
	r.t.Helper()
	sig := signature
	opts := &git.CreateTagOptions{Tagger: &sig, Message: "release " + name}
	if _, err := r.repo.CreateTag(name, plumbing.NewHash(rev), opts); err != nil {
		r.t.Fatalf("failed to create tag %s: %v", name, err)
	}
}

// MoveTag deletes name and recreates it at rev, simulating a force-pushed tag.
func (r *GitRepo) MoveTag(name, rev string) {
	r.t.Helper()
	if err := r.repo.DeleteTag(name); err != nil {
		r.t.Fatalf("failed to delete tag %s: %v", name, err)
	}
	r.Tag(name, rev)
}

// MustWriteFile writes data to path. The test fails immediately on error.
func MustWriteFile(t testing.TB, path string, data []byte, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
