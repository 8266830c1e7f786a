//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// killProcessTree starts the child in its own process group so cancellation
// also reaches anything it spawned (ffmpeg, for instance).
func killProcessTree(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
