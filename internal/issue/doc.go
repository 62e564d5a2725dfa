// SPDX-License-Identifier: MPL-2.0

// Package issue turns recipekit failures into guidance for the user.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for a fix. The issue catalog holds longer Markdown write-ups,
// rendered with glamour, for failures that need more than a line of advice.
package issue
