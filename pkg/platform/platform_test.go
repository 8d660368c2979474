package platform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/keyflow/command"
	kferrors "github.com/grovetools/keyflow/errors"
)

func respondWith(out string) func(command.Invocation) string {
	return func(command.Invocation) string {
		return "printf '%s' '" + out + "'"
	}
}

func TestSnapshot(t *testing.T) {
	fake := &command.FakeExecutor{Respond: respondWith(
		`{"frontmost":"com.apple.Terminal","applications":[{"bundle_identifier":"com.apple.Terminal","name":"Terminal","pid":42,"hidden":false,"active":true},{"bundle_identifier":"com.apple.Safari","name":"Safari","pid":7,"hidden":true,"active":false}]}`,
	)}
	m := NewMacOS(fake)

	snap, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "com.apple.Terminal", snap.Frontmost)
	assert.True(t, snap.Running("com.apple.Safari"))
	assert.False(t, snap.Running("com.apple.Mail"))
	app, ok := snap.Find("com.apple.Safari")
	require.True(t, ok)
	assert.True(t, app.Hidden)
	assert.Equal(t, 7, app.PID)
	assert.Equal(t, []string{"com.apple.Terminal", "com.apple.Safari"}, snap.BundleIdentifiers())

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "osascript -l JavaScript -", calls[0].String())
}

func TestSnapshotBadOutput(t *testing.T) {
	m := NewMacOS(&command.FakeExecutor{Respond: respondWith("not json")})
	_, err := m.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeInternal))
}

func TestLaunchFlags(t *testing.T) {
	tests := []struct {
		name string
		opts LaunchOptions
		want string
	}{
		{"foreground", LaunchOptions{}, "open -b com.apple.Notes"},
		{"background", LaunchOptions{Background: true}, "open -g -b com.apple.Notes"},
		{"hidden", LaunchOptions{Background: true, Hidden: true}, "open -g -j -b com.apple.Notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &command.FakeExecutor{}
			m := NewMacOS(fake)
			require.NoError(t, m.Launch(context.Background(), "com.apple.Notes", tt.opts))
			assert.Equal(t, tt.want, fake.Calls()[0].String())
		})
	}
}

func TestLaunchMissingApplication(t *testing.T) {
	m := NewMacOS(&command.FakeExecutor{Respond: func(command.Invocation) string {
		return "echo 'Unable to find application' >&2; exit 1"
	}})
	err := m.Launch(context.Background(), "com.example.Missing", LaunchOptions{})
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeApplicationMissing))
}

func TestOpenCommands(t *testing.T) {
	fake := &command.FakeExecutor{}
	m := NewMacOS(fake)
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, "https://example.com", ""))
	require.NoError(t, m.Open(ctx, "/tmp/notes.txt", "com.apple.TextEdit"))
	require.NoError(t, m.Reveal(ctx, "/Applications/Safari.app"))
	require.NoError(t, m.OpenApplication(ctx, "Mission Control", "1"))
	require.NoError(t, m.OpenApplication(ctx, "Calculator"))
	require.NoError(t, m.Activate(ctx, `com.example."quoted"`))

	var got []string
	for _, c := range fake.Calls() {
		got = append(got, c.String())
	}
	assert.Equal(t, []string{
		"open https://example.com",
		"open -b com.apple.TextEdit /tmp/notes.txt",
		"open -R /Applications/Safari.app",
		"open -a Mission Control --args 1",
		"open -a Calculator",
		`osascript -e tell application id "com.example.\"quoted\"" to activate`,
	}, got)
}

func TestWindowsDecode(t *testing.T) {
	fake := &command.FakeExecutor{Respond: respondWith(
		`[{"id":12,"owner":"Safari","pid":7,"title":"Start","layer":0,"onscreen":true,"bounds":{"x":10,"y":20,"width":800,"height":600}}]`,
	)}
	m := NewMacOS(fake)

	windows, err := m.Windows(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	w := windows[0]
	assert.Equal(t, "Safari", w.Owner)
	assert.Equal(t, Rect{X: 10, Y: 20, Width: 800, Height: 600}, w.Bounds)
	assert.Equal(t, 810.0, w.Bounds.MaxX())
	cx, cy := w.Bounds.Center()
	assert.Equal(t, 410.0, cx)
	assert.Equal(t, 320.0, cy)
	assert.True(t, w.Bounds.Contains(10, 20))
	assert.False(t, w.Bounds.Contains(810, 20))
}

func TestFocusedWindowFailure(t *testing.T) {
	m := NewMacOS(&command.FakeExecutor{Respond: func(command.Invocation) string { return "exit 1" }})
	_, err := m.FocusedWindow(context.Background())
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeWindowNotFound))
}

func TestScripts(t *testing.T) {
	fake := &command.FakeExecutor{Respond: func(inv command.Invocation) string {
		return "echo ran " + inv.Name
	}}
	m := NewMacOS(fake)
	ctx := context.Background()

	out, err := m.Shell(ctx, "echo hi")
	require.NoError(t, err)
	assert.Equal(t, "ran /bin/sh", out)

	out, err = m.AppleScriptFile(ctx, "/tmp/a.scpt")
	require.NoError(t, err)
	assert.Equal(t, "ran osascript", out)

	calls := fake.Calls()
	assert.Equal(t, []string{"-c", "echo hi"}, calls[0].Args)
	assert.Equal(t, []string{"/tmp/a.scpt"}, calls[1].Args)
}

func TestClickMenuItemRequiresPath(t *testing.T) {
	fake := &command.FakeExecutor{}
	m := NewMacOS(fake)
	err := m.ClickMenuItem(context.Background(), "com.apple.finder", nil)
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeInvalidInput))
	assert.Empty(t, fake.Calls())
}

func TestShortcuts(t *testing.T) {
	fake := &command.FakeExecutor{Respond: func(inv command.Invocation) string {
		if len(inv.Args) > 0 && inv.Args[0] == "list" {
			return "printf 'Morning\\n\\nShare Screen\\n'"
		}
		return ""
	}}
	m := NewMacOS(fake)
	ctx := context.Background()

	names, err := m.ListShortcuts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Morning", "Share Screen"}, names)

	require.NoError(t, m.RevealShortcut(ctx, "Share Screen"))
	last := fake.Calls()[len(fake.Calls())-1]
	assert.True(t, strings.HasSuffix(last.String(), "name=Share%20Screen"), last.String())
}

func TestShortcutsMissingCLI(t *testing.T) {
	fake := &command.FakeExecutor{Missing: []string{"shortcuts"}}
	m := NewMacOS(fake)
	ctx := context.Background()

	_, err := m.ListShortcuts(ctx)
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeMissingCapability))

	err = m.RunShortcut(ctx, "Morning")
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeMissingCapability))
	assert.Empty(t, fake.Calls())
}

func TestCallRendersArguments(t *testing.T) {
	src := call("function (a, b) { return a + b; }", "x\"y", []string{"File", "New"})
	assert.Equal(t, `(function (a, b) { return a + b; })("x\"y", ["File","New"])`, src)
}
