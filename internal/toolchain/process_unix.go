// SPDX-License-Identifier: MPL-2.0

//go:build unix

package toolchain

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts cmd in its own process group and kills the whole
// group on cancel.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
