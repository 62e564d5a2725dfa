// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/recipekit/recipekit/pkg/types"
)

// ExitNotFound is reported when the toolchain executable cannot be located.
const ExitNotFound types.ExitCode = 127

// ErrBuild is matched by every BuildError.
var ErrBuild = errors.New("build failed")

// BuildError reports a toolchain that could not be started, exited non-zero,
// or did not produce the declared artifact.
type BuildError struct {
	// Command is the shell-quoted command line that was run.
	Command string
	// ExitCode is the toolchain's exit status, or ExitNotFound.
	ExitCode types.ExitCode
	// Output is the toolchain's combined stdout and stderr, verbatim.
	Output string
	Err    error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var b strings.Builder
	switch {
	case e.ExitCode == ExitNotFound:
		fmt.Fprintf(&b, "toolchain not found: %v", e.Err)
	case e.Err != nil:
		fmt.Fprintf(&b, "%s: %v", e.Command, e.Err)
	default:
		fmt.Fprintf(&b, "%s exited with status %s", e.Command, e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap exposes ErrBuild and the underlying cause.
func (e *BuildError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrBuild, e.Err}
	}
	return []error{ErrBuild}
}
