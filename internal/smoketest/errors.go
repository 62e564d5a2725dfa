// SPDX-License-Identifier: MPL-2.0

package smoketest

import (
	"errors"
	"fmt"

	"github.com/recipekit/recipekit/pkg/types"
)

// ErrSmokeTest is matched by LaunchError and AssertionError.
var ErrSmokeTest = errors.New("smoke test failed")

type (
	// LaunchError reports a binary that could not be started, timed out, or
	// exited with a non-zero status.
	LaunchError struct {
		Binary types.FilesystemPath
		// ExitCode is set when the binary ran and exited non-zero.
		ExitCode types.ExitCode
		Output   string
		Err      error
	}

	// AssertionError reports output that does not begin with the expected
	// prefix.
	AssertionError struct {
		Expected string
		Actual   string
	}
)

// Error implements the error interface.
func (e *LaunchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to run %s: %v", e.Binary, e.Err)
	}
	return fmt.Sprintf("%s exited with status %s", e.Binary, e.ExitCode)
}

// Unwrap exposes ErrSmokeTest and the underlying cause.
func (e *LaunchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSmokeTest, e.Err}
	}
	return []error{ErrSmokeTest}
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("output does not start with %q: got %q", e.Expected, e.Actual)
}

// Unwrap returns ErrSmokeTest for errors.Is() compatibility.
func (e *AssertionError) Unwrap() error { return ErrSmokeTest }
