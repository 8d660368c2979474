package command

import (
	"context"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
)

// Invocation is one command seen by a FakeExecutor.
type Invocation struct {
	Name string
	Args []string
}

// String joins name and args with spaces.
func (i Invocation) String() string {
	return strings.TrimSpace(i.Name + " " + strings.Join(i.Args, " "))
}

// FakeExecutor records invocations and runs a shell snippet in their place.
// Respond maps an invocation to the snippet; an empty snippet succeeds
// silently.
type FakeExecutor struct {
	mu          sync.Mutex
	Invocations []Invocation
	Respond     func(inv Invocation) string
	// Missing lists tools LookPath does not find.
	Missing []string
}

func (f *FakeExecutor) record(name string, args []string) string {
	inv := Invocation{Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.Invocations = append(f.Invocations, inv)
	respond := f.Respond
	f.mu.Unlock()
	if respond == nil {
		return "true"
	}
	if script := respond(inv); script != "" {
		return script
	}
	return "true"
}

func (f *FakeExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(shell(), "-c", f.record(name, args))
}

func (f *FakeExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, shell(), "-c", f.record(name, args))
}

func (f *FakeExecutor) LookPath(file string) (string, error) {
	if slices.Contains(f.Missing, file) {
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + file, nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeExecutor) Calls() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Invocation(nil), f.Invocations...)
}

// Reset drops the recorded invocations.
func (f *FakeExecutor) Reset() {
	f.mu.Lock()
	f.Invocations = nil
	f.mu.Unlock()
}

func shell() string {
	if _, err := os.Stat("/bin/sh"); err == nil {
		return "/bin/sh"
	}
	return "sh"
}
