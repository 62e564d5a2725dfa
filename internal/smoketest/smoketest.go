// SPDX-License-Identifier: MPL-2.0

package smoketest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/recipekit/recipekit/internal/install"
	"github.com/recipekit/recipekit/internal/toolchain"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

// DefaultTimeout bounds a smoke test when Tester.Timeout is zero.
const DefaultTimeout = time.Minute

type (
	// Tester runs smoke tests against installed binaries.
	Tester struct {
		// Timeout bounds each run. Zero means DefaultTimeout.
		Timeout time.Duration
	}

	// Check is one resolved smoke test.
	Check struct {
		Binary         types.FilesystemPath
		Args           []string
		ExpectedPrefix string
	}

	// Outcome is the result of a passing check.
	Outcome struct {
		Check  Check
		Output string
	}
)

// NewCheck resolves the smoke test of r installed in prefix at version v.
func NewCheck(r *recipe.Recipe, prefix install.Prefix, v recipe.Version) Check {
	return Check{
		Binary:         prefix.BinPath(r.Build().Artifact),
		Args:           r.Test().Args,
		ExpectedPrefix: r.ExpectedPrefix(v),
	}
}

// Run executes the recipe's binary from prefix and asserts that its merged
// stdout and stderr begin with "<ProductName> <v>". It may be called any
// number of times against the same install.
func (t *Tester) Run(ctx context.Context, r *recipe.Recipe, prefix install.Prefix, v recipe.Version) (*Outcome, error) {
	return t.RunCheck(ctx, NewCheck(r, prefix, v))
}

// RunCheck executes a resolved check.
func (t *Tester) RunCheck(ctx context.Context, c Check) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, string(c.Binary), c.Args...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	toolchain.BindToContext(cmd)

	slog.Debug("running smoke test", "binary", c.Binary, "args", c.Args)
	if err := cmd.Run(); err != nil {
		return nil, launchFailure(ctx, c.Binary, output.String(), err)
	}

	out := output.String()
	if !strings.HasPrefix(out, c.ExpectedPrefix) {
		return nil, &AssertionError{Expected: c.ExpectedPrefix, Actual: out}
	}
	return &Outcome{Check: c, Output: out}, nil
}

func (t *Tester) timeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTimeout
	}
	return t.Timeout
}

func launchFailure(ctx context.Context, binary types.FilesystemPath, output string, err error) *LaunchError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &LaunchError{Binary: binary, Output: output, Err: ctxErr}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if code.Validate() != nil {
			code = types.ExitFailure
		}
		return &LaunchError{Binary: binary, ExitCode: code, Output: output}
	}
	return &LaunchError{Binary: binary, Output: output, Err: err}
}
