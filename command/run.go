package command

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	kferrors "github.com/grovetools/keyflow/errors"
)

const (
	// DefaultTimeout bounds a run that does not set its own timeout.
	DefaultTimeout = 30 * time.Second

	// MaxTimeout is the largest timeout a run may ask for.
	MaxTimeout = 10 * time.Minute

	// MaxOutput caps captured stdout and stderr.
	MaxOutput = 1 << 20
)

// Spec describes one program invocation.
type Spec struct {
	Name    string
	Args    []string
	Stdin   string
	Timeout time.Duration
	Env     []string
}

// String renders the command line for logs and errors.
func (s Spec) String() string {
	return strings.TrimSpace(s.Name + " " + strings.Join(s.Args, " "))
}

// Result is the captured output of a finished run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Run executes spec and returns trimmed stdout. A non-zero exit becomes a
// COMMAND_FAILED error carrying the exit code and stderr.
func Run(ctx context.Context, ex Executor, spec Spec) (string, error) {
	res, err := RunResult(ctx, ex, spec)
	return strings.TrimRight(res.Stdout, "\n"), err
}

// RunResult executes spec and returns the full result.
func RunResult(ctx context.Context, ex Executor, spec Spec) (Result, error) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timeout = min(timeout, MaxTimeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := ex.CommandContext(ctx, spec.Name, spec.Args...)
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}
	stdout := &limitedBuffer{max: MaxOutput}
	stderr := &limitedBuffer{max: MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return res, kferrors.CommandFailed(spec.String(), err).WithDetail("timeout", timeout.String())
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	kerr := kferrors.CommandFailed(spec.String(), err)
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		kerr = kerr.WithDetail("stderr", msg)
	}
	return res, kerr
}

// limitedBuffer keeps the first max bytes and discards the rest.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
