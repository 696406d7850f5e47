//go:build !linux

// Package procattr configures spawned agent processes so they can be torn
// down as a group and do not outlive the supervisor.
package procattr

import (
	"os/exec"
	"syscall"
)

// Apply puts the child in its own process group. Pdeathsig does not exist
// off Linux; the group alone still lets the supervisor signal the whole tree.
func Apply(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
