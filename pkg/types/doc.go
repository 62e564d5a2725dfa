// SPDX-License-Identifier: MPL-2.0

// Package types defines value types shared by the recipe, install and
// smoke-test packages. It imports only the standard library.
package types
