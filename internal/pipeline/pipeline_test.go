// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recipekit/recipekit/internal/deps"
	"github.com/recipekit/recipekit/internal/fetch"
	"github.com/recipekit/recipekit/internal/install"
	"github.com/recipekit/recipekit/internal/smoketest"
	"github.com/recipekit/recipekit/internal/testutil"
	"github.com/recipekit/recipekit/internal/toolchain"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

const helloRecipe = `
name:         "hello"
product_name: "Hello"
homepage:     "https://example.com/hello"
license:      "MIT"
source: {
	url:      %q
	tag:      "v1.0.0"
	revision: %q
}
head: url: %q
dependencies: [{name: "go"}, {name: "rsync", provided_by: "darwin"}]
build: artifact: "hello"
`

var buildDate = func() recipe.BuildDate {
	d, err := recipe.ParseBuildDate("2026-10-16")
	if err != nil {
		panic(err)
	}
	return d
}()

type fixture struct {
	pipeline *Pipeline
	recipe   *recipe.Recipe
	prefix   install.Prefix
	origin   *testutil.GitRepo
	pinned   string
	sandbox  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testutil.RequireGit(t)
	testutil.RequirePOSIXShell(t)

	origin := testutil.NewGitRepo(t)
	pinned := origin.Commit("release", map[string]string{
		"go.mod":  "module example.com/hello\n",
		"main.go": "package main\n",
	})
	origin.Tag("v1.0.0", pinned)

	r, err := recipe.Parse(fmt.Appendf(nil, helloRecipe, origin.Dir, pinned, origin.Dir), "hello.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	prefix, err := install.NewPrefix(types.FilesystemPath(filepath.Join(t.TempDir(), "prefix")))
	if err != nil {
		t.Fatal(err)
	}

	sandbox := filepath.Join(t.TempDir(), "cache")
	tc := toolchain.Toolchain{Binary: testutil.FakeGo(t, t.TempDir(), "Hello", "hello")}
	p := New(tc, &smoketest.Tester{}, types.FilesystemPath(sandbox))
	p.Fetcher = &fetch.Fetcher{}
	p.Today = func() recipe.BuildDate { return buildDate }
	p.LookPath = func(file string) (string, error) { return file, nil }

	return &fixture{pipeline: p, recipe: r, prefix: prefix, origin: origin, pinned: pinned, sandbox: sandbox}
}

func sandboxEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
	return entries
}

func TestRun_Stable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.pipeline.Run(context.Background(), Request{Recipe: f.recipe, Prefix: f.prefix})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", res.Version)
	}
	if res.Revision != recipe.Revision(f.pinned) {
		t.Errorf("Revision = %s, want %s", res.Revision, f.pinned)
	}
	if res.Test == nil || !strings.HasPrefix(res.Test.Output, "Hello 1.0.0 (2026-10-16)") {
		t.Errorf("smoke test outcome = %+v", res.Test)
	}
	if res.Install.Receipt.Revision != f.pinned {
		t.Errorf("receipt revision = %q", res.Install.Receipt.Revision)
	}
	if n := len(sandboxEntries(t, f.sandbox)); n != 0 {
		t.Errorf("sandbox root holds %d entries after the run, want 0", n)
	}
}

func TestRun_RepeatedInstalls(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for i := range 2 {
		if _, err := f.pipeline.Run(context.Background(), Request{Recipe: f.recipe, Prefix: f.prefix}); err != nil {
			t.Fatalf("run %d: Run() error = %v", i, err)
		}
	}
	if _, err := f.pipeline.Test(context.Background(), f.recipe, f.prefix); err != nil {
		t.Errorf("Test() after repeated installs error = %v", err)
	}
}

func TestRun_MovedTagStopsBeforeBuild(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	moved := f.origin.Commit("hotfix", map[string]string{"fix.go": "package main\n"})
	f.origin.MoveTag("v1.0.0", moved)

	_, err := f.pipeline.Run(context.Background(), Request{Recipe: f.recipe, Prefix: f.prefix})
	if !errors.Is(err, fetch.ErrRevisionMismatch) {
		t.Fatalf("Run() error = %v, want ErrRevisionMismatch", err)
	}
	if _, statErr := os.Stat(string(f.prefix.BinPath("hello"))); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("nothing should be installed after a fetch failure, stat error = %v", statErr)
	}
}

func TestRun_Head(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	tip := f.origin.Commit("unreleased", map[string]string{"new.go": "package main\n"})

	res, err := f.pipeline.Run(context.Background(), Request{Recipe: f.recipe, Prefix: f.prefix, Head: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := recipe.Version("HEAD-" + tip[:7])
	if res.Version != want {
		t.Errorf("Version = %q, want %q", res.Version, want)
	}
	if !res.Install.Receipt.Head {
		t.Error("receipt should record a head install")
	}
}

func TestRun_KeepSandboxAndSkipTest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.pipeline.Run(context.Background(), Request{Recipe: f.recipe, Prefix: f.prefix, SkipTest: true, KeepSandbox: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Test != nil {
		t.Error("smoke test should be skipped")
	}
	if res.Sandbox == "" {
		t.Fatal("Sandbox should be reported when kept")
	}
	if _, err := os.Stat(filepath.Join(string(res.Sandbox), "src", "build-args.txt")); err != nil {
		t.Errorf("kept sandbox should hold the built source tree: %v", err)
	}
}

func TestRun_MissingToolchain(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.pipeline.Installer = install.NewInstaller(toolchain.Toolchain{Binary: filepath.Join(t.TempDir(), "go")})

	_, err := f.pipeline.Run(context.Background(), Request{Recipe: f.recipe, Prefix: f.prefix})
	if !errors.Is(err, toolchain.ErrBuild) {
		t.Fatalf("Run() error = %v, want ErrBuild", err)
	}
	if _, statErr := os.Stat(string(f.prefix.BinPath("hello"))); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("install path should be empty after a failed build, stat error = %v", statErr)
	}
}

type recordingFetcher struct{ calls int }

func (r *recordingFetcher) Fetch(context.Context, recipe.SourceRef, types.FilesystemPath) (*fetch.Checkout, error) {
	r.calls++
	return nil, errors.New("unexpected fetch")
}

func (r *recordingFetcher) FetchHead(context.Context, recipe.HeadRef, types.FilesystemPath) (*fetch.Checkout, error) {
	r.calls++
	return nil, errors.New("unexpected fetch")
}

func TestRun_StrictDeps(t *testing.T) {
	t.Parallel()

	r, err := recipe.Builtin("otc-auth")
	if err != nil {
		t.Fatal(err)
	}
	fetcher := &recordingFetcher{}
	p := &Pipeline{
		Fetcher:     fetcher,
		SandboxRoot: types.FilesystemPath(t.TempDir()),
		GOOS:        "linux",
		LookPath:    func(string) (string, error) { return "", errors.New("not found") },
	}

	_, err = p.Run(context.Background(), Request{Recipe: r, StrictDeps: true})
	if !errors.Is(err, deps.ErrMissingDependency) {
		t.Fatalf("Run() error = %v, want ErrMissingDependency", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch ran %d times after a strict dependency failure", fetcher.calls)
	}
}

func TestRun_NoHead(t *testing.T) {
	t.Parallel()

	r, err := recipe.Parse([]byte(`
name:         "nohead"
product_name: "NoHead"
homepage:     "https://example.com/nohead"
license:      "MIT"
source: {url: "https://example.com/nohead.git", tag: "v1.0.0"}
build: artifact: "nohead"
`), "nohead.cue")
	if err != nil {
		t.Fatal(err)
	}
	p := &Pipeline{Fetcher: &recordingFetcher{}, SandboxRoot: types.FilesystemPath(t.TempDir()), LookPath: func(f string) (string, error) { return f, nil }}
	if _, err := p.Run(context.Background(), Request{Recipe: r, Head: true}); !errors.Is(err, ErrNoHead) {
		t.Errorf("Run() error = %v, want ErrNoHead", err)
	}
}

func TestCheckDeps_UsesConfiguredToolchain(t *testing.T) {
	t.Parallel()

	r, err := recipe.Builtin("otc-auth")
	if err != nil {
		t.Fatal(err)
	}
	var probed []string
	p := &Pipeline{
		Toolchain: toolchain.Toolchain{Binary: "/opt/go1.25/bin/go"},
		GOOS:      "darwin",
		LookPath: func(file string) (string, error) {
			probed = append(probed, file)
			return file, nil
		},
	}
	report := p.CheckDeps(r, recipe.PhaseBuild)
	if err := report.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	want := []string{"bash", "ls", "/opt/go1.25/bin/go"}
	if strings.Join(probed, ",") != strings.Join(want, ",") {
		t.Errorf("probed %q, want %q (rsync is provided on darwin)", probed, want)
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	r, err := recipe.Builtin("otc-auth")
	if err != nil {
		t.Fatal(err)
	}
	prefix, err := install.NewPrefix("/opt/recipekit")
	if err != nil {
		t.Fatal(err)
	}
	p := &Pipeline{GOOS: "linux", Today: func() recipe.BuildDate { return buildDate }}

	plan, err := p.Plan(Request{Recipe: r, Prefix: prefix})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan.Version != "2.0.0" {
		t.Errorf("Version = %q", plan.Version)
	}
	wantCmd := `go build -ldflags '-X main.version=2.0.0 -X main.date=2026-10-16'`
	if plan.Command != wantCmd {
		t.Errorf("Command = %q, want %q", plan.Command, wantCmd)
	}
	steps := make([]string, len(plan.Steps))
	for i, s := range plan.Steps {
		steps[i] = string(s.Step)
	}
	if got := strings.Join(steps, ","); got != "deps,fetch,install,test" {
		t.Errorf("steps = %s, want deps,fetch,install,test", got)
	}
	if !strings.Contains(plan.Steps[1].Detail, "verify revision 86b76b04813ce94cfaacd95f8653f2fe13851a60") {
		t.Errorf("fetch step = %q, want revision verification", plan.Steps[1].Detail)
	}
	if !strings.Contains(plan.Steps[3].Detail, `"OTC-Auth 2.0.0"`) {
		t.Errorf("test step = %q, want expected prefix", plan.Steps[3].Detail)
	}

	headPlan, err := p.Plan(Request{Recipe: r, Prefix: prefix, Head: true, SkipTest: true})
	if err != nil {
		t.Fatalf("Plan(head) error = %v", err)
	}
	if len(headPlan.Steps) != 3 || headPlan.Version != "HEAD" {
		t.Errorf("head plan = %+v", headPlan)
	}
}
