// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptionText is the sentinel error wrapped by InvalidDescriptionTextError.
var ErrInvalidDescriptionText = errors.New("invalid description text")

type (
	// DescriptionText is a human-readable one-line summary of a recipe.
	// The zero value is valid. Non-zero values must not be whitespace-only
	// and must fit on a single line.
	DescriptionText string

	// InvalidDescriptionTextError is returned when a DescriptionText value is
	// whitespace-only or spans several lines.
	InvalidDescriptionTextError struct {
		Value DescriptionText
	}
)

// String returns the string representation of the DescriptionText.
func (d DescriptionText) String() string { return string(d) }

// Validate returns nil if the DescriptionText is valid.
func (d DescriptionText) Validate() error {
	if d == "" {
		return nil
	}
	s := string(d)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, "\r\n") {
		return &InvalidDescriptionTextError{Value: d}
	}
	return nil
}

// Error implements the error interface for InvalidDescriptionTextError.
func (e *InvalidDescriptionTextError) Error() string {
	return fmt.Sprintf("invalid description %q: must be a single non-blank line", e.Value)
}

// Unwrap returns ErrInvalidDescriptionText for errors.Is() compatibility.
func (e *InvalidDescriptionTextError) Unwrap() error { return ErrInvalidDescriptionText }
