// Package command runs external programs through an injectable Executor.
package command

import (
	"context"
	"os/exec"
)

// Executor creates the commands keyflow runs. Tests substitute it to fake
// osascript, open and the other macOS tools.
type Executor interface {
	Command(name string, args ...string) *exec.Cmd
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
	// LookPath reports where file is installed.
	LookPath(file string) (string, error)
}

// RealExecutor runs programs from $PATH. Env is appended to the inherited
// environment of every command; the daemon sets KEYFLOW_DAEMON=1 there so
// user scripts can tell they were started by a workflow.
type RealExecutor struct {
	Env []string
}

func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return e.prepare(exec.Command(name, args...))
}

func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return e.prepare(exec.CommandContext(ctx, name, args...))
}

func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (e *RealExecutor) prepare(cmd *exec.Cmd) *exec.Cmd {
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	return cmd
}
