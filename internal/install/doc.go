// SPDX-License-Identifier: MPL-2.0

// Package install builds a fetched source tree and places the resulting
// binary into an installation prefix.
//
// The binary is copied into <prefix>/bin through a temporary file in the same
// directory followed by a rename, so the install path holds either the
// previous binary or the complete new one. Installs into one prefix are
// serialised with a lock file, and each successful install records an
// INSTALL_RECEIPT.toml under <prefix>/var/recipekit/<recipe>.
package install
