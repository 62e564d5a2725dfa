// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// SetHomeDir points the user's home directory at dir for the rest of the
// test and returns a function restoring it. Windows reads USERPROFILE,
// everything else reads HOME.
//
// Tests calling it must not be parallel.
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	if runtime.GOOS == "windows" {
		return MustSetenv(t, "USERPROFILE", dir)
	}
	return MustSetenv(t, "HOME", dir)
}
