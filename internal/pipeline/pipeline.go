// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/recipekit/recipekit/internal/deps"
	"github.com/recipekit/recipekit/internal/fetch"
	"github.com/recipekit/recipekit/internal/install"
	"github.com/recipekit/recipekit/internal/smoketest"
	"github.com/recipekit/recipekit/internal/toolchain"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

// ErrNoHead is returned for head builds of recipes without a head reference.
var ErrNoHead = errors.New("recipe has no head reference")

type (
	// Fetcher checks out recipe sources. *fetch.Fetcher implements it.
	Fetcher interface {
		Fetch(ctx context.Context, src recipe.SourceRef, dest types.FilesystemPath) (*fetch.Checkout, error)
		FetchHead(ctx context.Context, head recipe.HeadRef, dest types.FilesystemPath) (*fetch.Checkout, error)
	}

	// Installer runs the install procedure. *install.Installer implements it.
	Installer interface {
		Install(ctx context.Context, r *recipe.Recipe, src install.Source, prefix install.Prefix, params recipe.BuildParams) (*install.Result, error)
	}

	// Tester runs the smoke test. *smoketest.Tester implements it.
	Tester interface {
		Run(ctx context.Context, r *recipe.Recipe, prefix install.Prefix, v recipe.Version) (*smoketest.Outcome, error)
	}

	// Pipeline wires the procedures together.
	Pipeline struct {
		Fetcher   Fetcher
		Installer Installer
		Tester    Tester
		// Toolchain is used for dry-run rendering and to locate the go
		// dependency.
		Toolchain toolchain.Toolchain
		// SandboxRoot is where per-run sandboxes are created. Empty means
		// the system temp directory.
		SandboxRoot types.FilesystemPath
		// LookPath resolves dependency commands. Defaults to exec.LookPath.
		LookPath deps.LookPathFunc
		// GOOS selects platform-provided dependencies. Defaults to runtime.GOOS.
		GOOS string
		// Today supplies the build date. Defaults to recipe.Today.
		Today func() recipe.BuildDate
	}

	// Request describes one run.
	Request struct {
		Recipe *recipe.Recipe
		Prefix install.Prefix
		// Head builds the recipe's mutable branch instead of the pinned tag.
		Head bool
		// SkipTest stops after install.
		SkipTest bool
		// KeepSandbox leaves the sandbox on disk after the run.
		KeepSandbox bool
		// StrictDeps turns missing dependencies into an error instead of a
		// warning.
		StrictDeps bool
	}

	// Result describes a completed run.
	Result struct {
		Version  recipe.Version
		Revision recipe.Revision
		Deps     deps.Report
		Install  *install.Result
		// Test is nil when the smoke test was skipped.
		Test *smoketest.Outcome
		// Sandbox is set when the sandbox was kept.
		Sandbox types.FilesystemPath
	}
)

// New returns a Pipeline using the real fetcher, installer and tester.
func New(tc toolchain.Toolchain, tester *smoketest.Tester, sandboxRoot types.FilesystemPath) *Pipeline {
	return &Pipeline{
		Fetcher:     fetch.NewFetcher(),
		Installer:   install.NewInstaller(tc),
		Tester:      tester,
		Toolchain:   tc,
		SandboxRoot: sandboxRoot,
	}
}

// Run executes the request synchronously. Errors from each step are returned
// unchanged, so callers can match fetch.ErrFetch, toolchain.ErrBuild and
// smoketest.ErrSmokeTest.
func (p *Pipeline) Run(ctx context.Context, req Request) (res *Result, err error) {
	r := req.Recipe
	res = &Result{}

	res.Deps = p.CheckDeps(r, recipe.PhaseBuild)
	if depErr := res.Deps.Err(); depErr != nil {
		if req.StrictDeps {
			return nil, depErr
		}
		slog.Warn("continuing with missing dependencies", "recipe", r.Name(), "error", depErr)
	}

	sandbox, err := p.newSandbox(r.Name())
	if err != nil {
		return nil, err
	}
	defer func() {
		if req.KeepSandbox {
			slog.Info("keeping sandbox", "dir", sandbox)
			if res != nil {
				res.Sandbox = sandbox
			}
			return
		}
		if rmErr := os.RemoveAll(string(sandbox)); rmErr != nil {
			slog.Warn("failed to remove sandbox", "dir", sandbox, "error", rmErr)
		}
	}()

	checkout, version, err := p.fetch(ctx, r, req.Head, sandbox.Join("src"))
	if err != nil {
		return nil, err
	}
	res.Version = version
	res.Revision = checkout.Revision

	params := recipe.BuildParams{Version: version, BuildDate: p.today()}
	src := install.Source{Dir: checkout.Dir, Revision: checkout.Revision, Head: req.Head}
	res.Install, err = p.Installer.Install(ctx, r, src, req.Prefix, params)
	if err != nil {
		return nil, err
	}

	if req.SkipTest {
		return res, nil
	}
	res.Test, err = p.Tester.Run(ctx, r, req.Prefix, version)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Test runs the smoke test against an existing install. The version comes
// from the install receipt, falling back to the recipe's tag version.
func (p *Pipeline) Test(ctx context.Context, r *recipe.Recipe, prefix install.Prefix) (*smoketest.Outcome, error) {
	version := r.Version()
	receipt, err := install.ReadReceipt(prefix, r.Name())
	switch {
	case err == nil:
		version = recipe.Version(receipt.Version)
	case errors.Is(err, install.ErrNotInstalled):
		slog.Debug("no install receipt, testing against tag version", "recipe", r.Name(), "version", version)
	default:
		return nil, err
	}
	return p.Tester.Run(ctx, r, prefix, version)
}

// CheckDeps probes the recipe's dependencies for phase on the host. The go
// dependency resolves to the configured toolchain binary.
func (p *Pipeline) CheckDeps(r *recipe.Recipe, phase recipe.DependencyPhase) deps.Report {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	resolve := func(file string) (string, error) {
		if file == toolchain.DefaultBinary && p.Toolchain.Binary != "" {
			file = p.Toolchain.Binary
		}
		return lookPath(file)
	}
	return deps.Check(r, phase, p.goos(), resolve)
}

func (p *Pipeline) fetch(ctx context.Context, r *recipe.Recipe, head bool, dest types.FilesystemPath) (*fetch.Checkout, recipe.Version, error) {
	if !head {
		co, err := p.Fetcher.Fetch(ctx, r.Source(), dest)
		if err != nil {
			return nil, "", err
		}
		return co, r.Version(), nil
	}

	ref, ok := r.Head()
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", r.Name(), ErrNoHead)
	}
	co, err := p.Fetcher.FetchHead(ctx, ref, dest)
	if err != nil {
		return nil, "", err
	}
	return co, r.HeadVersion(co.Revision), nil
}

func (p *Pipeline) newSandbox(name recipe.RecipeName) (types.FilesystemPath, error) {
	root := string(p.SandboxRoot)
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return "", fmt.Errorf("create sandbox root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(root, "recipekit-"+string(name)+"-*")
	if err != nil {
		return "", fmt.Errorf("create sandbox: %w", err)
	}
	return types.FilesystemPath(dir), nil
}

func (p *Pipeline) goos() string {
	if p.GOOS == "" {
		return runtime.GOOS
	}
	return p.GOOS
}

func (p *Pipeline) today() recipe.BuildDate {
	if p.Today == nil {
		return recipe.Today()
	}
	return p.Today()
}
