// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/recipekit/recipekit/internal/testutil"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

var otcAuthSpec = recipe.BuildSpec{
	VersionSymbol: "main.version",
	DateSymbol:    "main.date",
	Artifact:      "otc-auth",
}

func testParams(t *testing.T) recipe.BuildParams {
	t.Helper()
	date, err := recipe.ParseBuildDate("2026-10-16")
	if err != nil {
		t.Fatalf("ParseBuildDate() error = %v", err)
	}
	return recipe.BuildParams{Version: "2.0.0", BuildDate: date}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	tc := Toolchain{Binary: "/usr/local/go/bin/go", Env: []string{"CGO_ENABLED=0"}}
	cmd, err := tc.Command("/tmp/src", testParams(t), otcAuthSpec)
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}

	wantArgs := []string{"build", "-ldflags", "-X main.version=2.0.0 -X main.date=2026-10-16"}
	if strings.Join(cmd.Args, "\x00") != strings.Join(wantArgs, "\x00") {
		t.Errorf("Args = %q, want %q", cmd.Args, wantArgs)
	}
	if cmd.Binary != "/usr/local/go/bin/go" {
		t.Errorf("Binary = %q", cmd.Binary)
	}
	if len(cmd.Env) != 1 || cmd.Env[0] != "CGO_ENABLED=0" {
		t.Errorf("Env = %q", cmd.Env)
	}

	want := `/usr/local/go/bin/go build -ldflags '-X main.version=2.0.0 -X main.date=2026-10-16'`
	if got := cmd.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCommand_DefaultsAndPackage(t *testing.T) {
	t.Parallel()

	spec := otcAuthSpec
	spec.Package = "./cmd/otc-auth"
	cmd, err := Toolchain{}.Command("/tmp/src", testParams(t), spec)
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if cmd.Binary != DefaultBinary {
		t.Errorf("Binary = %q, want %q", cmd.Binary, DefaultBinary)
	}
	if last := cmd.Args[len(cmd.Args)-1]; last != "./cmd/otc-auth" {
		t.Errorf("last arg = %q, want package path", last)
	}
}

func TestCommand_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  recipe.BuildParams
		spec    recipe.BuildSpec
		wantErr error
	}{
		{"missing_version", recipe.BuildParams{BuildDate: recipe.Today()}, otcAuthSpec, recipe.ErrInvalidVersion},
		{"bad_symbol", testParams(t), recipe.BuildSpec{VersionSymbol: "version", DateSymbol: "main.date", Artifact: "x"}, recipe.ErrInvalidSymbolName},
		{"escaping_artifact", testParams(t), recipe.BuildSpec{VersionSymbol: "main.version", DateSymbol: "main.date", Artifact: "../x"}, recipe.ErrInvalidArtifactPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := (Toolchain{}).Command("/tmp", tt.params, tt.spec); !errors.Is(err, tt.wantErr) {
				t.Errorf("Command() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_Success(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	src := types.FilesystemPath(t.TempDir())
	tc := Toolchain{Binary: testutil.FakeGo(t, binDir, "OTC-Auth", "otc-auth")}

	artifact, err := tc.Build(context.Background(), src, testParams(t), otcAuthSpec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := src.Join("otc-auth"); artifact != want {
		t.Errorf("artifact = %q, want %q", artifact, want)
	}

	args, err := os.ReadFile(filepath.Join(string(src), "build-args.txt"))
	if err != nil {
		t.Fatalf("toolchain did not run in the source tree: %v", err)
	}
	want := "build\n-ldflags\n-X main.version=2.0.0 -X main.date=2026-10-16\n"
	if string(args) != want {
		t.Errorf("toolchain args = %q, want %q", args, want)
	}
}

func TestBuild_Env(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	src := types.FilesystemPath(t.TempDir())
	script := `printf '%s' "$GOFLAGS" > goflags.txt
: > otc-auth
`
	tc := Toolchain{
		Binary: testutil.WriteExecutable(t, binDir, "go", script),
		Env:    []string{"GOFLAGS=-trimpath"},
	}
	if _, err := tc.Build(context.Background(), src, testParams(t), otcAuthSpec); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(string(src), "goflags.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "-trimpath" {
		t.Errorf("GOFLAGS = %q, want %q", got, "-trimpath")
	}
}

func TestBuild_ToolchainFailure(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	src := types.FilesystemPath(t.TempDir())
	diag := "main.go:3:1: syntax error: non-declaration statement outside function body"
	tc := Toolchain{Binary: testutil.FailingGo(t, binDir, diag, 2)}

	_, err := tc.Build(context.Background(), src, testParams(t), otcAuthSpec)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build() error = %v, want *BuildError", err)
	}
	if !errors.Is(err, ErrBuild) {
		t.Error("BuildError should wrap ErrBuild")
	}
	if be.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", be.ExitCode)
	}
	if !strings.Contains(be.Output, diag) {
		t.Errorf("Output = %q, want verbatim diagnostics", be.Output)
	}
	if !strings.Contains(be.Error(), diag) {
		t.Errorf("Error() should include the diagnostics, got %q", be.Error())
	}
}

func TestBuild_MissingToolchain(t *testing.T) {
	t.Parallel()

	src := types.FilesystemPath(t.TempDir())
	tc := Toolchain{Binary: filepath.Join(t.TempDir(), "no-such-go")}

	_, err := tc.Build(context.Background(), src, testParams(t), otcAuthSpec)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build() error = %v, want *BuildError", err)
	}
	if be.ExitCode != ExitNotFound {
		t.Errorf("ExitCode = %d, want %d", be.ExitCode, ExitNotFound)
	}
	if _, statErr := os.Stat(filepath.Join(string(src), "otc-auth")); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("no artifact should exist after a missing toolchain, stat error = %v", statErr)
	}
}

func TestBuild_MissingArtifact(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	tc := Toolchain{Binary: testutil.WriteExecutable(t, binDir, "go", "exit 0\n")}

	_, err := tc.Build(context.Background(), types.FilesystemPath(t.TempDir()), testParams(t), otcAuthSpec)
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("Build() error = %v, want ErrBuild", err)
	}
	if !strings.Contains(err.Error(), "did not produce artifact otc-auth") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestBuild_Timeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"exec", "exec sleep 10\n"},
		{"forked child", "sleep 10\n"},
		{"background grandchild", "sleep 10 &\nwait\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			binDir := t.TempDir()
			tc := Toolchain{
				Binary:  testutil.WriteExecutable(t, binDir, "go", tt.body),
				Timeout: 100 * time.Millisecond,
			}

			start := time.Now()
			_, err := tc.Build(context.Background(), types.FilesystemPath(t.TempDir()), testParams(t), otcAuthSpec)
			elapsed := time.Since(start)

			if !errors.Is(err, ErrBuild) || !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("Build() error = %v, want ErrBuild wrapping context.DeadlineExceeded", err)
			}
			if limit := 100*time.Millisecond + WaitDelay + time.Second; elapsed > limit {
				t.Errorf("Build() returned after %s, want under %s", elapsed, limit)
			}
		})
	}
}
