// SPDX-License-Identifier: MPL-2.0

// Package toolchain runs the Go toolchain that turns a fetched source tree
// into a binary. A Toolchain is a plain configuration value; nothing here
// reads global state beyond the process environment it extends.
package toolchain
