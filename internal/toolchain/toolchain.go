// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

const (
	// DefaultBinary is looked up on PATH when Toolchain.Binary is empty.
	DefaultBinary = "go"
	// DefaultTimeout bounds a build when Toolchain.Timeout is zero.
	DefaultTimeout = 30 * time.Minute
)

type (
	// Toolchain describes how to invoke the Go compiler.
	Toolchain struct {
		// Binary is an executable name resolved on PATH, or a path.
		Binary string
		// Env holds KEY=VALUE entries appended to the inherited environment.
		Env []string
		// Timeout bounds each build. Zero means DefaultTimeout.
		Timeout time.Duration
		// Output, if set, receives the build output as it is produced.
		Output io.Writer
	}

	// Command is a fully resolved toolchain invocation.
	Command struct {
		Binary string
		Args   []string
		Dir    types.FilesystemPath
		Env    []string
	}
)

// Command returns the invocation that builds the source tree at dir.
func (tc Toolchain) Command(dir types.FilesystemPath, params recipe.BuildParams, spec recipe.BuildSpec) (Command, error) {
	if err := params.Validate(); err != nil {
		return Command{}, err
	}
	if err := errors.Join(spec.VersionSymbol.Validate(), spec.DateSymbol.Validate(), spec.Artifact.Validate()); err != nil {
		return Command{}, err
	}

	args := []string{"build", "-ldflags", params.LinkerFlags(spec)}
	if spec.Package != "" {
		args = append(args, spec.Package)
	}

	return Command{
		Binary: tc.binary(),
		Args:   args,
		Dir:    dir,
		Env:    append([]string(nil), tc.Env...),
	}, nil
}

// String renders the command as a POSIX shell command line.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	for _, w := range append([]string{c.Binary}, c.Args...) {
		quoted, err := syntax.Quote(w, syntax.LangPOSIX)
		if err != nil {
			quoted = fmt.Sprintf("%q", w)
		}
		words = append(words, quoted)
	}
	return strings.Join(words, " ")
}

// Build compiles the source tree at dir and returns the path of the produced
// artifact. Any failure, including a missing toolchain executable, is a
// *BuildError.
func (tc Toolchain) Build(ctx context.Context, dir types.FilesystemPath, params recipe.BuildParams, spec recipe.BuildSpec) (types.FilesystemPath, error) {
	command, err := tc.Command(dir, params, spec)
	if err != nil {
		return "", &BuildError{Command: "build", ExitCode: types.ExitFailure, Err: err}
	}
	line := command.String()

	binPath, err := exec.LookPath(command.Binary)
	if err != nil {
		return "", &BuildError{Command: line, ExitCode: ExitNotFound, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, tc.timeout())
	defer cancel()

	var output bytes.Buffer
	var w io.Writer = &output
	if tc.Output != nil {
		w = io.MultiWriter(&output, tc.Output)
	}

	cmd := exec.CommandContext(ctx, binPath, command.Args...)
	cmd.Dir = string(dir)
	cmd.Env = append(os.Environ(), command.Env...)
	cmd.Stdout = w
	cmd.Stderr = w
	BindToContext(cmd)

	slog.Debug("running toolchain", "command", line, "dir", dir)
	if err := cmd.Run(); err != nil {
		return "", buildFailure(ctx, line, output.String(), err)
	}

	artifact := dir.Join(spec.Artifact.String())
	if info, err := os.Stat(string(artifact)); err != nil || info.IsDir() {
		return "", &BuildError{
			Command:  line,
			ExitCode: types.ExitFailure,
			Output:   output.String(),
			Err:      fmt.Errorf("build did not produce artifact %s", spec.Artifact),
		}
	}
	return artifact, nil
}

func (tc Toolchain) binary() string {
	if tc.Binary == "" {
		return DefaultBinary
	}
	return tc.Binary
}

func (tc Toolchain) timeout() time.Duration {
	if tc.Timeout <= 0 {
		return DefaultTimeout
	}
	return tc.Timeout
}

func buildFailure(ctx context.Context, line, output string, err error) *BuildError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &BuildError{Command: line, ExitCode: types.ExitFailure, Output: output, Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if code.Validate() != nil {
			code = types.ExitFailure
		}
		return &BuildError{Command: line, ExitCode: code, Output: output}
	}
	return &BuildError{Command: line, ExitCode: types.ExitFailure, Output: output, Err: err}
}
