//go:build !unix

package process

import "os/exec"

// killProcessTree is a no-op here; WaitDelay still bounds Wait.
func killProcessTree(cmd *exec.Cmd) {}
