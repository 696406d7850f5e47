//go:build linux

// Package procattr configures spawned agent processes so they can be torn
// down as a group and do not outlive the supervisor.
package procattr

import (
	"os/exec"
	"syscall"
)

// Apply puts the child in its own process group and arranges for it to
// receive SIGTERM if the supervisor dies (Pdeathsig is Linux-only). Without
// the group, killing the agent CLI leaves behind whatever helpers it spawned.
func Apply(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
