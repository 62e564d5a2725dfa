// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/recipekit/recipekit/internal/deps"
	"github.com/recipekit/recipekit/internal/fetch"
	"github.com/recipekit/recipekit/internal/issue"
	"github.com/recipekit/recipekit/internal/smoketest"
	"github.com/recipekit/recipekit/internal/toolchain"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

// ServiceError pairs a failure with the issue catalog entry and exit code
// the CLI reports for it. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// Code is the process exit code.
	Code types.ExitCode
}

func newServiceError(err error, issueID issue.Id, code types.ExitCode) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID, Code: code}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a recipe, fetch, build or smoke-test failure to its
// issue catalog entry and exit code.
func classifyError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var buildErr *toolchain.BuildError
	switch {
	case errors.Is(err, fetch.ErrRevisionMismatch):
		return newServiceError(err, issue.RevisionMismatchId, types.ExitFetchFailed)
	case errors.Is(err, fetch.ErrFetch):
		return newServiceError(err, issue.FetchFailedId, types.ExitFetchFailed)
	case errors.As(err, &buildErr) && buildErr.ExitCode == toolchain.ExitNotFound:
		return newServiceError(err, issue.ToolchainNotFoundId, types.ExitBuildFailed)
	case errors.Is(err, toolchain.ErrBuild):
		return newServiceError(err, issue.BuildFailedId, types.ExitBuildFailed)
	case errors.Is(err, smoketest.ErrSmokeTest):
		return newServiceError(err, issue.SmokeTestFailedId, types.ExitSmokeTestFailed)
	case errors.Is(err, deps.ErrMissingDependency):
		return newServiceError(err, issue.DependenciesMissingId, types.ExitFailure)
	case errors.Is(err, recipe.ErrRecipeNotFound), errors.Is(err, os.ErrNotExist):
		return newServiceError(err, issue.RecipeNotFoundId, types.ExitFailure)
	case errors.Is(err, recipe.ErrInvalidRecipe):
		return newServiceError(err, issue.RecipeParseErrorId, types.ExitFailure)
	case errors.Is(err, os.ErrPermission):
		return newServiceError(err, issue.PermissionDeniedId, types.ExitFailure)
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return newServiceError(err, ae.Issue, types.ExitFailure)
	}
	return newServiceError(err, 0, types.ExitFailure)
}

// renderServiceError prints the error followed by its catalog entry.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, verbose bool, style string) {
	if svcErr == nil {
		return
	}

	fmt.Fprintf(stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(svcErr.Err, verbose))

	if svcErr.IssueID == 0 {
		return
	}
	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
			return
		}
		fmt.Fprint(stderr, rendered)
	}
}

// formatErrorForDisplay uses ActionableError formatting when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
