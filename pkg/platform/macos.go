package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/command"
	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
)

// MacOS implements every collaborator interface on top of the stock macOS
// command-line tools.
type MacOS struct {
	exec   command.Executor
	logger *logrus.Entry
}

// NewMacOS returns a MacOS backed by ex. A nil ex uses the real executor.
func NewMacOS(ex command.Executor) *MacOS {
	if ex == nil {
		ex = &command.RealExecutor{}
	}
	return &MacOS{exec: ex, logger: logging.NewLogger("platform")}
}

var (
	_ Workspace    = (*MacOS)(nil)
	_ WindowServer = (*MacOS)(nil)
	_ Scripter     = (*MacOS)(nil)
	_ MenuBar      = (*MacOS)(nil)
	_ Shortcuts    = (*MacOS)(nil)
)

func (m *MacOS) run(ctx context.Context, name string, args ...string) (string, error) {
	return command.Run(ctx, m.exec, command.Spec{Name: name, Args: args})
}

// jxa runs a JavaScript for Automation program fed on stdin.
func (m *MacOS) jxa(ctx context.Context, source string) (string, error) {
	return command.Run(ctx, m.exec, command.Spec{
		Name:  "osascript",
		Args:  []string{"-l", "JavaScript", "-"},
		Stdin: source,
	})
}

// jxaJSON runs a JXA program and decodes its JSON output into out.
func (m *MacOS) jxaJSON(ctx context.Context, source string, out interface{}) error {
	raw, err := m.jxa(ctx, source)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return kferrors.Wrap(err, kferrors.ErrCodeInternal, "decoding osascript output").WithDetail("output", truncate(raw, 200))
	}
	return nil
}

// jsArgs renders values as a JSON-encoded argument list for a JXA template.
func jsArgs(values ...interface{}) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			b = []byte("null")
		}
		parts = append(parts, string(b))
	}
	return strings.Join(parts, ", ")
}

// call builds a JXA program that invokes fn with the given arguments.
func call(fn string, values ...interface{}) string {
	return fmt.Sprintf("(%s)(%s)", fn, jsArgs(values...))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
