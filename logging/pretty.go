package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/keyflow/tui/theme"
)

// PrettyLogger writes styled, human-facing CLI output. It is separate from
// the structured loggers, which go to files.
type PrettyLogger struct {
	writer io.Writer
}

// NewPrettyLogger writes to stdout.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{writer: os.Stdout}
}

// WithWriter sets a custom writer.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

func (p *PrettyLogger) Success(message string) {
	t := theme.DefaultTheme
	fmt.Fprintf(p.writer, "%s %s\n", t.Success.Render(theme.IconSuccess), message)
}

func (p *PrettyLogger) InfoPretty(message string) {
	fmt.Fprintln(p.writer, theme.DefaultTheme.Info.Render(message))
}

func (p *PrettyLogger) WarnPretty(message string) {
	t := theme.DefaultTheme
	fmt.Fprintf(p.writer, "%s %s\n", t.Warning.Render(theme.IconWarning), t.Warning.Render(message))
}

func (p *PrettyLogger) ErrorPretty(message string, err error) {
	t := theme.DefaultTheme
	fmt.Fprintf(p.writer, "%s %s", t.Error.Render(theme.IconError), t.Error.Render(message))
	if err != nil {
		fmt.Fprintf(p.writer, ": %s", err.Error())
	}
	fmt.Fprintln(p.writer)
}

// Field prints an aligned key/value pair.
func (p *PrettyLogger) Field(key string, value interface{}) {
	t := theme.DefaultTheme
	fmt.Fprintf(p.writer, "%-14s %s\n", t.Muted.Render(key+":"), t.Bold.Render(fmt.Sprint(value)))
}

// Shortcut prints a key sequence rendered as key caps.
func (p *PrettyLogger) Shortcut(label string, ids ...string) {
	fmt.Fprintf(p.writer, "%s", theme.DefaultTheme.Muted.Render(label))
	for i, id := range ids {
		if i > 0 {
			fmt.Fprint(p.writer, " "+theme.IconArrow)
		}
		fmt.Fprint(p.writer, " "+theme.RenderShortcut(id))
	}
	fmt.Fprintln(p.writer)
}
