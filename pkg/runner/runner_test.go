package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/enginestate"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

func noSleep(context.Context, time.Duration) error { return nil }

func appCmd(action models.ApplicationAction, mods ...models.ApplicationModifier) models.ApplicationCommand {
	return models.ApplicationCommand{
		CommandMeta: models.CommandMeta{ID: "app", Enabled: true},
		Action:      action,
		Application: models.Application{BundleIdentifier: "com.apple.Safari", Path: "/Applications/Safari.app"},
		Modifiers:   mods,
	}
}

func TestApplicationRunner(t *testing.T) {
	safari := platform.App{BundleIdentifier: "com.apple.Safari", PID: 7}
	hiddenSafari := safari
	hiddenSafari.Hidden = true

	tests := []struct {
		name     string
		snapshot platform.Snapshot
		cmd      models.ApplicationCommand
		want     []string
	}{
		{
			name: "launches when not running",
			cmd:  appCmd(models.ApplicationOpen),
			want: []string{"launch com.apple.Safari bg=false hidden=false"},
		},
		{
			name: "launch flags",
			cmd:  appCmd(models.ApplicationOpen, models.ModifierBackground, models.ModifierHidden),
			want: []string{"launch com.apple.Safari bg=true hidden=true"},
		},
		{
			name:     "activates when running elsewhere",
			snapshot: platform.Snapshot{Frontmost: "com.apple.Terminal", Applications: []platform.App{safari}},
			cmd:      appCmd(models.ApplicationOpen),
			want:     []string{"activate com.apple.Safari"},
		},
		{
			name:     "frontmost target is not re-activated",
			snapshot: platform.Snapshot{Frontmost: "com.apple.Safari", Applications: []platform.App{safari}},
			cmd:      appCmd(models.ApplicationOpen),
			want:     nil,
		},
		{
			name:     "only if not running",
			snapshot: platform.Snapshot{Frontmost: "com.apple.Terminal", Applications: []platform.App{safari}},
			cmd:      appCmd(models.ApplicationOpen, models.ModifierOnlyIfNotRunning),
			want:     nil,
		},
		{
			name:     "hidden modifier hides a frontmost target",
			snapshot: platform.Snapshot{Frontmost: "com.apple.Safari", Applications: []platform.App{safari}},
			cmd:      appCmd(models.ApplicationOpen, models.ModifierHidden),
			want:     []string{"hide com.apple.Safari"},
		},
		{
			name:     "hidden application is unhidden then activated",
			snapshot: platform.Snapshot{Frontmost: "com.apple.Terminal", Applications: []platform.App{hiddenSafari}},
			cmd:      appCmd(models.ApplicationOpen),
			want:     []string{"unhide com.apple.Safari", "activate com.apple.Safari"},
		},
		{
			name:     "background does not activate",
			snapshot: platform.Snapshot{Frontmost: "com.apple.Terminal", Applications: []platform.App{safari}},
			cmd:      appCmd(models.ApplicationOpen, models.ModifierBackground),
			want:     nil,
		},
		{
			name: "close",
			cmd:  appCmd(models.ApplicationClose),
			want: []string{"terminate com.apple.Safari"},
		},
		{
			name: "unhide",
			cmd:  appCmd(models.ApplicationUnhide),
			want: []string{"unhide com.apple.Safari"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &fakeWorkspace{snapshot: tt.snapshot}
			r := NewApplication(ws)
			require.NoError(t, r.Run(context.Background(), tt.cmd))
			assert.Equal(t, tt.want, ws.Calls())
		})
	}
}

func TestApplicationReveal(t *testing.T) {
	ws := &fakeWorkspace{}
	r := NewApplication(ws)
	require.NoError(t, r.Reveal(context.Background(), appCmd(models.ApplicationOpen)))
	assert.Equal(t, []string{"reveal /Applications/Safari.app"}, ws.Calls())
}

func TestRunnerRejectsOtherKinds(t *testing.T) {
	r := NewOpen(&fakeWorkspace{})
	err := r.Run(context.Background(), models.TypeCommand{Input: "x"})
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeInvalidInput))
}

func newKeyboard(poster *fakePoster) *Keyboard {
	k := NewKeyboard(keycodes.NewStore(keycodes.ANSI()), poster)
	k.sleep = noSleep
	return k
}

func TestKeyboardPostsDownThenUp(t *testing.T) {
	poster := &fakePoster{}
	k := newKeyboard(poster)

	err := k.Run(context.Background(), models.KeyboardCommand{Shortcuts: []models.KeyShortcut{
		{Key: "D", LHS: true, Modifiers: []models.Modifier{models.ModifierCommand, models.ModifierShift}},
		{Key: "LeftArrow", LHS: true},
	}})
	require.NoError(t, err)

	require.Len(t, poster.keys, 4)
	d := uint16(2)
	assert.Equal(t, postedKey{Code: d, Flags: models.FlagCommand | models.FlagShift, Down: true}, poster.keys[0])
	assert.Equal(t, postedKey{Code: d, Flags: models.FlagCommand | models.FlagShift, Down: false}, poster.keys[1])
	assert.Equal(t, keycodes.CodeLeftArrow, poster.keys[2].Code)
	assert.True(t, poster.keys[2].Flags.Has(models.FlagNumericPad))
}

func TestKeyboardSkipsUnresolvedKeys(t *testing.T) {
	poster := &fakePoster{}
	k := newKeyboard(poster)

	err := k.Post(context.Background(), []models.KeyShortcut{{Key: "NoSuchKey"}, {Key: "A"}})
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeUnresolvedKey))
	require.Len(t, poster.downs(), 1)
	assert.Equal(t, uint16(0), poster.downs()[0].Code)
}

func TestNaturalTypingBounds(t *testing.T) {
	assert.Equal(t, 27500*time.Microsecond, TypingSlow.Bound())
	assert.Equal(t, 17500*time.Microsecond, TypingMedium.Bound())
	assert.Equal(t, 10*time.Millisecond, TypingFast.Bound())
	assert.Zero(t, TypingDisabled.Bound())
	assert.False(t, NaturalTyping("turbo").Valid())
}

func TestTypeHiNewline(t *testing.T) {
	poster := &fakePoster{}
	r := NewType(keycodes.NewStore(keycodes.ANSI()), poster, TypingSlow)
	var delays []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	require.NoError(t, r.Run(context.Background(), models.TypeCommand{Input: "Hi\n"}))

	downs := poster.downs()
	require.Len(t, downs, 3)
	assert.Equal(t, uint16(4), downs[0].Code)
	assert.Equal(t, models.FlagShift, downs[0].Flags)
	assert.Equal(t, uint16(34), downs[1].Code)
	assert.Zero(t, downs[1].Flags)
	assert.Equal(t, keycodes.CodeReturn, downs[2].Code)
	assert.Zero(t, downs[2].Flags)

	require.Len(t, delays, 3)
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, TypingSlow.Bound())
	}
}

func TestTypeDisabledJitterAndTextFallback(t *testing.T) {
	poster := &fakePoster{}
	r := NewType(keycodes.NewStore(keycodes.ANSI()), poster, TypingDisabled)
	slept := false
	r.sleep = func(context.Context, time.Duration) error {
		slept = true
		return nil
	}

	require.NoError(t, r.Run(context.Background(), models.TypeCommand{Input: "é👍🏽"}))
	assert.False(t, slept)
	assert.Equal(t, []string{"é", "👍🏽"}, poster.text)
}

func TestTypeStopsWhenCancelled(t *testing.T) {
	poster := &fakePoster{}
	r := NewType(keycodes.NewStore(keycodes.ANSI()), poster, TypingDisabled)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Run(ctx, models.TypeCommand{Input: "abc"})
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeCancelled))
	assert.Empty(t, poster.keys)
}

func TestScriptRunner(t *testing.T) {
	scripts := &fakeScripter{}
	ws := &fakeWorkspace{}
	r := NewScript(scripts, ws)
	ctx := context.Background()

	out, err := r.Output(ctx, models.ScriptCommand{ScriptKind: models.ScriptShell, Source: models.ScriptSource{Inline: "date"}})
	require.NoError(t, err)
	assert.Equal(t, "sh-out", out)

	require.NoError(t, r.Run(ctx, models.ScriptCommand{ScriptKind: models.ScriptAppleScript, Source: models.ScriptSource{Path: "/tmp/x.scpt"}}))
	assert.Equal(t, []string{"shell date", "applescript-file /tmp/x.scpt"}, scripts.calls)

	err = r.Run(ctx, models.ScriptCommand{ScriptKind: models.ScriptShell})
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeInvalidInput))

	require.NoError(t, r.Reveal(ctx, models.ScriptCommand{Source: models.ScriptSource{Path: "/tmp/x.scpt"}}))
	assert.Equal(t, []string{"reveal /tmp/x.scpt"}, ws.Calls())
}

func TestOpenRunner(t *testing.T) {
	ws := &fakeWorkspace{}
	r := NewOpen(ws)
	ctx := context.Background()

	require.NoError(t, r.Run(ctx, models.OpenCommand{Path: "https://example.com"}))
	require.NoError(t, r.Run(ctx, models.OpenCommand{Path: "/tmp/a.txt", Application: &models.Application{BundleIdentifier: "com.apple.TextEdit"}}))
	require.NoError(t, r.Reveal(ctx, models.OpenCommand{Path: "https://example.com"}))
	require.NoError(t, r.Reveal(ctx, models.OpenCommand{Path: "/tmp/a.txt"}))

	assert.Equal(t, []string{
		"open https://example.com ",
		"open /tmp/a.txt com.apple.TextEdit",
		"reveal /tmp/a.txt",
	}, ws.Calls())
}

func TestMenuBarUsesFrontmostByDefault(t *testing.T) {
	menus := &fakeMenus{}
	ws := &fakeWorkspace{snapshot: platform.Snapshot{Frontmost: "com.apple.finder"}}
	r := NewMenuBar(menus, ws)

	require.NoError(t, r.Run(context.Background(), models.MenuBarCommand{Tokens: []string{"File", "New Window"}}))
	assert.Equal(t, "com.apple.finder", menus.bundle)
	assert.Equal(t, []string{"File", "New Window"}, menus.path)
}

func TestShortcutRunner(t *testing.T) {
	sc := &fakeShortcuts{}
	r := NewShortcut(sc)
	ctx := context.Background()
	cmd := models.ShortcutCommand{ShortcutIdentifier: "Morning"}

	require.NoError(t, r.Run(ctx, cmd))
	require.NoError(t, r.Reveal(ctx, cmd))
	names, err := r.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Morning"}, sc.ran)
	assert.Equal(t, []string{"Morning"}, sc.revealed)
	assert.Equal(t, []string{"Morning"}, names)
}

func TestBuiltInStateActions(t *testing.T) {
	state := enginestate.New(models.StateEnabled)
	r := NewBuiltIn(state, newKeyboard(&fakePoster{}), nil)
	ctx := context.Background()
	run := func(a models.BuiltInAction) {
		require.NoError(t, r.Run(ctx, models.BuiltInCommand{Action: a}))
	}

	run(models.BuiltInDisable)
	assert.Equal(t, models.StateDisabled, state.Current())
	run(models.BuiltInToggle)
	assert.Equal(t, models.StateEnabled, state.Current())
	run(models.BuiltInRecordSequence)
	assert.Equal(t, models.StateRecording, state.Current())
	run(models.BuiltInEnable)
	assert.Equal(t, models.StateEnabled, state.Current())
}

func TestBuiltInRepeatAndQuickRun(t *testing.T) {
	poster := &fakePoster{}
	last := models.KeyboardCommand{Shortcuts: []models.KeyShortcut{{Key: "A"}}}
	r := NewBuiltIn(enginestate.New(models.StateEnabled), newKeyboard(poster), func() (models.KeyboardCommand, bool) {
		return last, true
	})
	quick := 0
	r.OnQuickRun = func() { quick++ }
	ctx := context.Background()

	require.NoError(t, r.Run(ctx, models.BuiltInCommand{Action: models.BuiltInRepeatLastKeystroke}))
	require.NoError(t, r.Run(ctx, models.BuiltInCommand{Action: models.BuiltInQuickRun}))

	assert.Len(t, poster.downs(), 1)
	assert.Equal(t, 1, quick)
}
