// Package process probes and signals other processes by PID.
package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsProcessAlive checks if a process with the given PID is still running.
// Signal 0 only checks for existence; EPERM means the process exists but
// belongs to someone else.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Terminate asks the process to exit with SIGTERM.
func Terminate(pid int) error {
	if pid <= 0 {
		return unix.ESRCH
	}
	return unix.Kill(pid, unix.SIGTERM)
}
