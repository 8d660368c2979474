package recorder

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/models"
)

type fakeSession struct {
	keys    chan keytap.Recorded
	stopped int
}

func (s *fakeSession) Keys() <-chan keytap.Recorded { return s.keys }
func (s *fakeSession) Stop() error                  { s.stopped++; return nil }

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestRecordOneShortcut(t *testing.T) {
	session := &fakeSession{keys: make(chan keytap.Recorded, 1)}
	m := New(func() (Session, error) { return session, nil })

	m, cmd := update(t, m, keyMsg("r"))
	require.NotNil(t, cmd)
	m, cmd = update(t, m, cmd())
	assert.True(t, m.Armed())
	assert.Contains(t, m.View(), "Recording")

	k, err := models.ParseKeyShortcut("cmd+shift+d")
	require.NoError(t, err)
	session.keys <- keytap.Recorded{Shortcut: k, ID: k.ID(), Code: 2}
	m, _ = update(t, m, cmd())

	assert.False(t, m.Armed())
	assert.Equal(t, 1, session.stopped)
	require.Len(t, m.Captured(), 1)
	assert.Equal(t, k.ID(), m.Captured()[0].ID)
	assert.Contains(t, m.View(), k.ID())

	m, _ = update(t, m, keyMsg("c"))
	assert.Empty(t, m.Captured())
}

func TestSessionErrorsAreShown(t *testing.T) {
	m := New(func() (Session, error) { return nil, errors.New("daemon gone") })
	m, cmd := update(t, m, keyMsg("r"))
	m, _ = update(t, m, cmd())
	assert.False(t, m.Armed())
	assert.Contains(t, m.View(), "daemon gone")
}

func TestQuitStopsSession(t *testing.T) {
	session := &fakeSession{keys: make(chan keytap.Recorded)}
	m := New(func() (Session, error) { return session, nil })
	m, cmd := update(t, m, keyMsg("r"))
	m, _ = update(t, m, cmd())

	_, cmd = update(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, 1, session.stopped)
}

func TestClosedSessionDisarms(t *testing.T) {
	session := &fakeSession{keys: make(chan keytap.Recorded)}
	m := New(func() (Session, error) { return session, nil })
	m, cmd := update(t, m, keyMsg("r"))
	m, cmd = update(t, m, cmd())
	close(session.keys)
	m, _ = update(t, m, cmd())
	assert.False(t, m.Armed())
}
