// SPDX-License-Identifier: MPL-2.0

// Package recipe defines the recipe descriptor: identity metadata, a pinned
// source reference, an optional floating head reference, declared
// dependencies, and the parameters of the build and smoke-test steps.
//
// Recipes are CUE documents validated against the embedded #Recipe schema
// (recipe_schema.cue). A decoded Recipe is immutable: every accessor returns
// a value or a copy.
package recipe
