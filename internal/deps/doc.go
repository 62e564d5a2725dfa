// SPDX-License-Identifier: MPL-2.0

// Package deps checks whether a recipe's declared dependencies are present
// on the host. Installing them is the host's job; recipekit only looks.
package deps
