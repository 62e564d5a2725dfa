// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

type (
	// Fetcher clones recipe sources.
	Fetcher struct {
		// Shallow limits network clones to the requested commit.
		// Local repositories are always cloned in full.
		Shallow bool

		// authFor picks credentials for a URL; nil means anonymous.
		authFor func(recipe.GitURL) transport.AuthMethod
	}

	// Checkout describes a fetched source tree.
	Checkout struct {
		// Dir is the root of the working tree.
		Dir types.FilesystemPath
		// Revision is the commit the working tree is at.
		Revision recipe.Revision
		// Ref is the tag or branch that was cloned.
		Ref string
	}
)

// NewFetcher creates a Fetcher that makes shallow network clones and picks
// credentials from SSH keys and token environment variables.
func NewFetcher() *Fetcher {
	return &Fetcher{Shallow: true, authFor: defaultAuth}
}

// Fetch clones src.Tag into dest and verifies it against src.Revision when
// the recipe pins one. dest must not exist or be empty. On any failure the
// checkout is discarded: dest is removed when Fetch created it and emptied
// otherwise.
func (f *Fetcher) Fetch(ctx context.Context, src recipe.SourceRef, dest types.FilesystemPath) (*Checkout, error) {
	if err := errors.Join(src.URL.Validate(), src.Tag.Validate(), src.Revision.Validate()); err != nil {
		return nil, &FetchError{URL: src.URL, Ref: src.Tag.String(), Err: err}
	}

	slog.Debug("cloning tag", "url", src.URL, "tag", src.Tag, "dest", dest)
	repo, discard, err := f.clone(ctx, src.URL, plumbing.NewTagReferenceName(string(src.Tag)), dest)
	if err != nil {
		return nil, &FetchError{URL: src.URL, Ref: src.Tag.String(), Err: err}
	}

	rev, err := headCommit(repo)
	if err != nil {
		discard()
		return nil, &FetchError{URL: src.URL, Ref: src.Tag.String(), Err: err}
	}

	if src.Revision.IsPinned() && rev != src.Revision {
		discard()
		return nil, &FetchError{URL: src.URL, Ref: src.Tag.String(), Expected: src.Revision, Actual: rev}
	}

	slog.Debug("source checked out", "tag", src.Tag, "revision", rev)
	return &Checkout{Dir: dest, Revision: rev, Ref: src.Tag.String()}, nil
}

// FetchHead clones the tip of head.Branch into dest.
func (f *Fetcher) FetchHead(ctx context.Context, head recipe.HeadRef, dest types.FilesystemPath) (*Checkout, error) {
	if err := errors.Join(head.URL.Validate(), head.Branch.Validate()); err != nil {
		return nil, &FetchError{URL: head.URL, Ref: head.Branch.String(), Err: err}
	}

	slog.Debug("cloning branch", "url", head.URL, "branch", head.Branch, "dest", dest)
	repo, discard, err := f.clone(ctx, head.URL, plumbing.NewBranchReferenceName(string(head.Branch)), dest)
	if err != nil {
		return nil, &FetchError{URL: head.URL, Ref: head.Branch.String(), Err: err}
	}

	rev, err := headCommit(repo)
	if err != nil {
		discard()
		return nil, &FetchError{URL: head.URL, Ref: head.Branch.String(), Err: err}
	}

	return &Checkout{Dir: dest, Revision: rev, Ref: head.Branch.String()}, nil
}

// ResolveTag asks the remote which commit tag currently points at, without
// cloning. Annotated tags are peeled to their commit.
func (f *Fetcher) ResolveTag(ctx context.Context, url recipe.GitURL, tag recipe.Tag) (recipe.Revision, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{string(url)},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{
		Auth:          f.auth(url),
		PeelingOption: git.AppendPeeled,
	})
	if err != nil {
		return "", &FetchError{URL: url, Ref: tag.String(), Err: fmt.Errorf("failed to list remote refs: %w", err)}
	}

	name := plumbing.NewTagReferenceName(string(tag)).String()
	var direct, peeled plumbing.Hash
	for _, ref := range refs {
		switch ref.Name().String() {
		case name:
			direct = ref.Hash()
		case name + "^{}":
			peeled = ref.Hash()
		}
	}

	switch {
	case !peeled.IsZero():
		return recipe.Revision(peeled.String()), nil
	case !direct.IsZero():
		return recipe.Revision(direct.String()), nil
	default:
		return "", &FetchError{URL: url, Ref: tag.String(), Err: fmt.Errorf("tag %q not found", tag)}
	}
}

// Verify checks that src.Tag on the remote still resolves to src.Revision.
func (f *Fetcher) Verify(ctx context.Context, src recipe.SourceRef) (recipe.Revision, error) {
	rev, err := f.ResolveTag(ctx, src.URL, src.Tag)
	if err != nil {
		return "", err
	}
	if src.Revision.IsPinned() && rev != src.Revision {
		return rev, &FetchError{URL: src.URL, Ref: src.Tag.String(), Expected: src.Revision, Actual: rev}
	}
	return rev, nil
}

func (f *Fetcher) auth(url recipe.GitURL) transport.AuthMethod {
	if f.authFor == nil {
		return nil
	}
	return f.authFor(url)
}

// clone checks ref out into dest. The returned discard func undoes the
// checkout and leaves a pre-existing dest in place.
func (f *Fetcher) clone(ctx context.Context, url recipe.GitURL, ref plumbing.ReferenceName, dest types.FilesystemPath) (*git.Repository, func(), error) {
	dir := string(dest)
	existed, err := ensureEmptyDir(dir)
	if err != nil {
		return nil, nil, err
	}
	discard := func() { removeCheckout(dest, existed) }

	opts := &git.CloneOptions{
		URL:           strings.TrimPrefix(string(url), "file://"),
		Auth:          f.auth(url),
		ReferenceName: ref,
		SingleBranch:  true,
	}
	if f.Shallow && !url.IsLocal() {
		opts.Depth = 1
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		discard()
		return nil, nil, err
	}
	return repo, discard, nil
}

// headCommit returns the commit HEAD points at, peeling annotated tags.
func headCommit(repo *git.Repository) (recipe.Revision, error) {
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}

	hash := head.Hash()
	for {
		tag, err := repo.TagObject(hash)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to peel tag %s: %w", hash, err)
		}
		hash = tag.Target
	}

	if _, err := repo.CommitObject(hash); err != nil {
		return "", fmt.Errorf("HEAD %s is not a commit: %w", hash, err)
	}
	return recipe.Revision(hash.String()), nil
}

// ensureEmptyDir reports whether dir already existed. A missing dir gets
// its parent created; an existing one must be empty.
func ensureEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return false, os.MkdirAll(filepath.Dir(dir), 0o755)
	case err != nil:
		return false, fmt.Errorf("failed to inspect checkout directory: %w", err)
	case len(entries) > 0:
		return true, fmt.Errorf("checkout directory %s is not empty", dir)
	default:
		return true, nil
	}
}

// removeCheckout deletes dest, or only its contents when keepDir is set.
func removeCheckout(dest types.FilesystemPath, keepDir bool) {
	if !keepDir {
		if err := os.RemoveAll(string(dest)); err != nil {
			slog.Warn("failed to remove checkout", "dir", dest, "error", err)
		}
		return
	}

	entries, err := os.ReadDir(string(dest))
	if err != nil {
		slog.Warn("failed to empty checkout", "dir", dest, "error", err)
		return
	}
	for _, e := range entries {
		if err := os.RemoveAll(dest.Join(e.Name()).String()); err != nil {
			slog.Warn("failed to empty checkout", "dir", dest, "error", err)
		}
	}
}
