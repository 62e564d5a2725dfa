// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package toolchain

import "os/exec"

// setProcessGroup is a no-op; WaitDelay alone bounds Wait.
func setProcessGroup(*exec.Cmd) {}
