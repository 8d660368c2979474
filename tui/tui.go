// Package tui holds the terminal UI pieces of keyflow.
package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/grovetools/keyflow/logging"
)

// InitializeTUI prepares the terminal for a full-screen program. Stderr log
// lines are muted so they do not tear the alternate screen; file logging
// continues. Call the returned func when the program exits.
//
// CLICOLOR_FORCE=1 or COLORTERM=truecolor forces true color.
func InitializeTUI() (restore func()) {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
	return logging.Redirect(io.Discard)
}
