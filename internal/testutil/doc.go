// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers: throwaway git repositories, fake
// toolchain and binary scripts, and Must* wrappers that fail the test on
// filesystem or environment errors.
package testutil
