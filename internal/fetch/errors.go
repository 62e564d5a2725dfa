// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"errors"
	"fmt"

	"github.com/recipekit/recipekit/pkg/recipe"
)

var (
	// ErrFetch is matched by every FetchError.
	ErrFetch = errors.New("fetch failed")
	// ErrRevisionMismatch is matched by FetchErrors caused by a tag that no
	// longer resolves to the pinned revision.
	ErrRevisionMismatch = errors.New("revision mismatch")
)

// FetchError reports a source that could not be fetched or failed pin
// verification. It is fatal: no build step runs after it.
type FetchError struct {
	URL recipe.GitURL
	// Ref is the tag or branch that was requested.
	Ref string
	// Expected and Actual are set for revision mismatches.
	Expected recipe.Revision
	Actual   recipe.Revision
	// Err is the transport or repository error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.IsMismatch() {
		return fmt.Sprintf("%s of %s resolves to %s, but the recipe pins %s", e.Ref, e.URL, e.Actual, e.Expected)
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch %s from %s: %v", e.Ref, e.URL, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s from %s", e.Ref, e.URL)
}

// IsMismatch reports whether the error is a pin verification failure.
func (e *FetchError) IsMismatch() bool {
	return e.Expected != "" && e.Actual != "" && e.Expected != e.Actual
}

// Unwrap exposes ErrFetch, ErrRevisionMismatch for mismatches, and the
// underlying cause.
func (e *FetchError) Unwrap() []error {
	errs := []error{ErrFetch}
	if e.IsMismatch() {
		errs = append(errs, ErrRevisionMismatch)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
