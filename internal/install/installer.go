// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/recipekit/recipekit/internal/issue"
	"github.com/recipekit/recipekit/internal/toolchain"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

type (
	// Builder turns a source tree into an artifact. toolchain.Toolchain
	// implements it.
	Builder interface {
		Build(ctx context.Context, dir types.FilesystemPath, params recipe.BuildParams, spec recipe.BuildSpec) (types.FilesystemPath, error)
	}

	// Source is a checked-out source tree.
	Source struct {
		Dir      types.FilesystemPath
		Revision recipe.Revision
		// Head marks a checkout of the recipe's mutable branch.
		Head bool
	}

	// Installer runs a recipe's install procedure.
	Installer struct {
		Builder Builder
		// Now stamps receipts. Defaults to time.Now.
		Now func() time.Time
	}

	// Result describes a completed install.
	Result struct {
		// BinPath is where the artifact was installed.
		BinPath types.FilesystemPath
		Receipt *Receipt
	}
)

// NewInstaller returns an Installer that builds with tc.
func NewInstaller(tc toolchain.Toolchain) *Installer {
	return &Installer{Builder: tc}
}

// Install builds src with the recipe's build spec and params, then installs
// the artifact into prefix. A build failure is returned as the builder's
// error unchanged and leaves nothing at the install path.
func (i *Installer) Install(ctx context.Context, r *recipe.Recipe, src Source, prefix Prefix, params recipe.BuildParams) (*Result, error) {
	lock, err := acquirePrefixLock(ctx, prefix)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	spec := r.Build()
	slog.Info("building", "recipe", r.Name(), "version", params.Version, "dir", src.Dir)
	artifact, err := i.Builder.Build(ctx, src.Dir, params, spec)
	if err != nil {
		return nil, err
	}

	binPath := prefix.BinPath(spec.Artifact)
	if err := os.MkdirAll(string(prefix.BinDir()), 0o755); err != nil {
		return nil, issue.WrapWithContext(err, "create bin directory", prefix.BinDir().String())
	}
	if err := copyExecutable(string(artifact), string(binPath)); err != nil {
		return nil, issue.WrapWithContext(fmt.Errorf("copy %s: %w", spec.Artifact, err), "install artifact", binPath.String())
	}
	slog.Info("installed", "path", binPath)

	rel, err := filepath.Rel(string(prefix.Root()), string(binPath))
	if err != nil {
		rel = string(binPath)
	}
	receipt := &Receipt{
		Recipe:      r.Name().String(),
		Version:     params.Version.String(),
		Revision:    src.Revision.String(),
		Head:        src.Head,
		BuildDate:   params.BuildDate.String(),
		InstalledAt: i.now().UTC().Truncate(time.Second),
		Files:       []string{filepath.ToSlash(rel)},
	}
	if err := writeReceipt(prefix, r.Name(), receipt); err != nil {
		return nil, issue.WrapWithContext(err, "write install receipt", prefix.ReceiptPath(r.Name()).String())
	}

	return &Result{BinPath: binPath, Receipt: receipt}, nil
}

func (i *Installer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// copyExecutable copies src to dst with mode 0755 through a temporary file
// in dst's directory.
func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return atomicWrite(dst, in, 0o755)
}

// atomicWrite replaces path with the contents of r. Readers see either the
// old file or the complete new one.
func atomicWrite(path string, r io.Reader, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
