// SPDX-License-Identifier: MPL-2.0

// Package smoketest checks that an installed binary answers its version
// subcommand with the expected product and version.
package smoketest
