// Package recorder is the terminal UI behind 'keyflow record'. Each time it
// is armed the daemon enters recording, the next shortcut pressed anywhere is
// captured and shown with its identifier, and the daemon returns to its
// previous state.
package recorder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/tui/theme"
)

// maxShown bounds the history rendered in the view.
const maxShown = 12

// Session is an open recording session.
type Session interface {
	Keys() <-chan keytap.Recorded
	Stop() error
}

// StartFunc opens a session that puts the daemon into recording.
type StartFunc func() (Session, error)

type (
	sessionStartedMsg struct{ session Session }
	recordedMsg       struct{ rec keytap.Recorded }
	sessionEndedMsg   struct{}
	errMsg            struct{ err error }
)

// Model is the bubbletea model of the recorder.
type Model struct {
	start    StartFunc
	session  Session
	keys     KeyMap
	help     help.Model
	captured []keytap.Recorded
	err      error
	width    int
}

// New creates a recorder that opens sessions with start.
func New(start StartFunc) Model {
	return Model{start: start, keys: DefaultKeyMap(), help: help.New()}
}

// Captured returns the shortcuts recorded so far, oldest first.
func (m Model) Captured() []keytap.Recorded {
	return m.captured
}

// Armed reports whether a recording session is open.
func (m Model) Armed() bool {
	return m.session != nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) arm() tea.Cmd {
	start := m.start
	return func() tea.Msg {
		s, err := start()
		if err != nil {
			return errMsg{err}
		}
		return sessionStartedMsg{s}
	}
}

func waitForKey(s Session) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-s.Keys()
		if !ok {
			return sessionEndedMsg{}
		}
		return recordedMsg{rec}
	}
}

func (m *Model) disarm() {
	if m.session != nil {
		_ = m.session.Stop()
		m.session = nil
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.disarm()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Record):
			if m.session == nil {
				m.err = nil
				return m, m.arm()
			}
		case key.Matches(msg, m.keys.Clear):
			m.captured = nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case sessionStartedMsg:
		m.session = msg.session
		return m, waitForKey(msg.session)

	case recordedMsg:
		m.captured = append(m.captured, msg.rec)
		m.disarm()

	case sessionEndedMsg:
		m.session = nil

	case errMsg:
		m.err = msg.err
		m.disarm()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	t := theme.DefaultTheme
	var b strings.Builder

	b.WriteString(t.Highlight.Render("keyflow recorder"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(t.Error.Render(theme.IconError) + " " + m.err.Error())
	case m.session != nil:
		b.WriteString(t.Error.Render(theme.IconRecording) + " Recording. Press the shortcut to capture.")
	default:
		b.WriteString(t.Muted.Render(theme.IconPaused + " Idle. Press r to record a shortcut."))
	}
	b.WriteString("\n\n")

	if len(m.captured) == 0 {
		b.WriteString(t.Muted.Render("Nothing recorded yet."))
		b.WriteString("\n")
	}
	shown := m.captured
	if len(shown) > maxShown {
		shown = shown[len(shown)-maxShown:]
	}
	for i := len(shown) - 1; i >= 0; i-- {
		rec := shown[i]
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			theme.RenderShortcut(rec.ID),
			"  ",
			t.Accent.Render(rec.ID),
			"  ",
			t.Muted.Render(fmt.Sprintf("code %d", rec.Code)),
		)
		b.WriteString(t.Muted.Render(theme.IconArrow) + " " + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
