// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"os/exec"
	"time"
)

// WaitDelay is how long a cancelled command may keep its output pipes open
// before they are closed and Wait returns.
const WaitDelay = 2 * time.Second

// BindToContext makes cancellation of cmd's context terminate the command
// together with every process it started. Grandchildren such as the
// compiler and linker would otherwise hold the output pipes open and keep
// Wait blocked after the direct child is killed.
func BindToContext(cmd *exec.Cmd) {
	cmd.WaitDelay = WaitDelay
	setProcessGroup(cmd)
}
