package keytap

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/keyflow/pkg/enginestate"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/shortcuts"
)

const (
	codeD = 2
	codeK = 40
	codeC = 8
	codeX = 7
)

var (
	cmdShift = models.FlagCommand | models.FlagLeftCommand | models.FlagShift | models.FlagLeftShift
	ctrl     = models.FlagControl | models.FlagLeftControl
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func mustSeq(t *testing.T, keys ...string) []models.KeyShortcut {
	t.Helper()
	var out []models.KeyShortcut
	for _, k := range keys {
		ks, err := models.ParseKeyShortcut(k)
		require.NoError(t, err)
		out = append(out, ks)
	}
	return out
}

type harness struct {
	ctrl  *Controller
	state *enginestate.Machine
	clock *fakeClock
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	groups := []models.Group{{
		Name: "G",
		Workflows: []models.Workflow{
			{ID: "dev", Name: "dev", Enabled: true, Trigger: &models.Trigger{Keyboard: mustSeq(t, "cmd+shift+d")}},
			{ID: "chord", Name: "chord", Enabled: true, Trigger: &models.Trigger{Keyboard: mustSeq(t, "ctrl+k", "ctrl+c")}},
			{ID: "enable", Name: "enable", Enabled: true, Trigger: &models.Trigger{Keyboard: mustSeq(t, "ctrl+x")},
				Commands: []models.Command{models.BuiltInCommand{Action: models.BuiltInEnable}}},
		},
	}}

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	state := enginestate.New(models.StateEnabled)
	keys := keycodes.NewStore(keycodes.ANSI())
	c := NewController(keys, state, opts)
	c.SetIndex(shortcuts.NewBuilder(keys).Rebuild(groups, shortcuts.Environment{}))
	t.Cleanup(c.Close)
	return &harness{ctrl: c, state: state, clock: clock}
}

func (h *harness) down(code uint16, flags models.ModifierFlags) Verdict {
	return h.ctrl.Handle(Event{Type: KeyDown, Code: code, Flags: flags})
}

func (h *harness) up(code uint16) Verdict {
	return h.ctrl.Handle(Event{Type: KeyUp, Code: code})
}

func (h *harness) nextTrigger(t *testing.T) *Trigger {
	t.Helper()
	select {
	case tr := <-h.ctrl.Triggers():
		return &tr
	default:
		return nil
	}
}

func TestCompleteMatchConsumesAndTriggers(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, Consume, h.down(codeD, cmdShift))
	tr := h.nextTrigger(t)
	require.NotNil(t, tr)
	assert.Equal(t, "dev", tr.Workflow.ID)
	assert.Equal(t, Idle, h.ctrl.Phase())

	assert.Equal(t, Consume, h.up(codeD), "key up of a consumed key down is swallowed")
	assert.Equal(t, Forward, h.up(codeD))
}

func TestUnmatchedKeyIsForwarded(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, Forward, h.down(codeD, 0))
	assert.Equal(t, Forward, h.up(codeD))
	assert.Nil(t, h.nextTrigger(t))
}

func TestTwoKeySequence(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, Consume, h.down(codeK, ctrl))
	assert.Equal(t, AwaitingContinuation, h.ctrl.Phase())
	assert.Nil(t, h.nextTrigger(t))

	h.clock.Advance(200 * time.Millisecond)
	assert.Equal(t, Consume, h.down(codeC, ctrl))
	tr := h.nextTrigger(t)
	require.NotNil(t, tr)
	assert.Equal(t, "chord", tr.Workflow.ID)
	assert.Len(t, tr.Sequence, 2)
}

func TestSequenceTimeoutStartsFresh(t *testing.T) {
	h := newHarness(t, Options{SequenceTimeout: time.Second})

	assert.Equal(t, Consume, h.down(codeK, ctrl))
	h.clock.Advance(1500 * time.Millisecond)

	assert.Equal(t, Forward, h.down(codeC, ctrl))
	assert.Nil(t, h.nextTrigger(t))
	assert.Equal(t, Idle, h.ctrl.Phase())
}

func TestTimeoutTimerReturnsToIdle(t *testing.T) {
	h := newHarness(t, Options{SequenceTimeout: 20 * time.Millisecond, Now: time.Now})

	assert.Equal(t, Consume, h.down(codeK, ctrl))
	assert.Eventually(t, func() bool { return h.ctrl.Phase() == Idle }, time.Second, 5*time.Millisecond)
}

func TestBreakingKeyIsRetriedAlone(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, Consume, h.down(codeK, ctrl))
	assert.Equal(t, Consume, h.down(codeD, cmdShift))
	tr := h.nextTrigger(t)
	require.NotNil(t, tr)
	assert.Equal(t, "dev", tr.Workflow.ID)

	assert.Equal(t, Consume, h.down(codeK, ctrl))
	assert.Equal(t, Forward, h.down(codeD, 0))
	assert.Equal(t, Idle, h.ctrl.Phase())
}

func TestDisabledOnlyHonorsControlWorkflows(t *testing.T) {
	h := newHarness(t, Options{})
	h.state.Set(models.StateDisabled)

	assert.Equal(t, Forward, h.down(codeD, cmdShift))
	assert.Nil(t, h.nextTrigger(t))

	assert.Equal(t, Consume, h.down(codeX, ctrl))
	tr := h.nextTrigger(t)
	require.NotNil(t, tr)
	assert.Equal(t, "enable", tr.Workflow.ID)
}

func TestRecordingTakesPrecedence(t *testing.T) {
	h := newHarness(t, Options{})
	h.state.Set(models.StateDisabled)
	h.state.Set(models.StateRecording)

	assert.Equal(t, Consume, h.down(codeD, cmdShift))
	assert.Equal(t, Recording, h.ctrl.Phase())
	assert.Nil(t, h.nextTrigger(t))

	select {
	case rec := <-h.ctrl.Recordings():
		assert.Equal(t, "shift+command+D", rec.ID)
		assert.Equal(t, uint16(codeD), rec.Code)
	default:
		t.Fatal("expected a recorded key")
	}
	assert.Equal(t, Consume, h.up(codeD))

	h.state.Apply(enginestate.SignalStopRecording)
	assert.Equal(t, Forward, h.down(codeD, cmdShift), "back to disabled after recording")
	assert.Equal(t, Idle, h.ctrl.Phase())
}

func TestSyntheticEventsPassThrough(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, Forward, h.ctrl.Handle(Event{Type: KeyDown, Code: codeD, Flags: cmdShift, Synthetic: true}))
	assert.Nil(t, h.nextTrigger(t))
}

func TestUnresolvedKeyResetsPending(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, Consume, h.down(codeK, ctrl))
	assert.Equal(t, Forward, h.down(200, 0))
	assert.Equal(t, Idle, h.ctrl.Phase())
	assert.Equal(t, Forward, h.down(codeC, ctrl))
}

func TestRepeatOfConsumedKeyIsSwallowed(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, Consume, h.down(codeD, cmdShift))
	require.NotNil(t, h.nextTrigger(t))

	assert.Equal(t, Consume, h.ctrl.Handle(Event{Type: KeyDown, Code: codeD, Flags: cmdShift, Repeat: true}))
	assert.Nil(t, h.nextTrigger(t))
}

func TestSetIndexDropsPartial(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, Consume, h.down(codeK, ctrl))
	h.ctrl.SetIndex(h.ctrl.Index())
	assert.Equal(t, Idle, h.ctrl.Phase())
	assert.Equal(t, Forward, h.down(codeC, ctrl))
}

func TestModifierSettleDebounce(t *testing.T) {
	var settled atomic.Int32
	h := newHarness(t, Options{
		ModifierSettleDelay: 20 * time.Millisecond,
		OnModifiersSettled:  func() { settled.Add(1) },
	})

	flags := func(f models.ModifierFlags) Verdict {
		return h.ctrl.Handle(Event{Type: FlagsChanged, Flags: f})
	}

	assert.Equal(t, Forward, flags(models.FlagCommand))
	assert.Equal(t, Forward, flags(0))
	assert.Equal(t, Forward, flags(models.FlagCommand))
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), settled.Load(), "held modifier cancels the settle window")

	flags(0)
	flags(models.FlagNumericPad)
	assert.Eventually(t, func() bool { return settled.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestFullTriggerChannelDropsMatch(t *testing.T) {
	h := newHarness(t, Options{TriggerBuffer: 1})
	assert.Equal(t, Consume, h.down(codeD, cmdShift))
	assert.Equal(t, Consume, h.down(codeD, cmdShift))
	require.NotNil(t, h.nextTrigger(t))
	assert.Nil(t, h.nextTrigger(t))
}

func TestNamedKeyTriggersFire(t *testing.T) {
	cmd := models.FlagCommand | models.FlagLeftCommand
	tests := []struct {
		trigger string
		code    uint16
		flags   models.ModifierFlags
	}{
		{"ctrl+space", keycodes.CodeSpace, ctrl},
		{"cmd+enter", keycodes.CodeReturn, cmd},
		{"ctrl+left", keycodes.CodeLeftArrow, ctrl | models.FlagFunction | models.FlagNumericPad},
		{"ctrl+esc", keycodes.CodeEscape, ctrl},
		{"f5", 96, models.FlagFunction},
		{"ctrl+f5", 96, ctrl | models.FlagFunction},
	}
	keys := keycodes.NewStore(keycodes.ANSI())
	for _, tt := range tests {
		t.Run(tt.trigger, func(t *testing.T) {
			groups := []models.Group{{Name: "G", Workflows: []models.Workflow{
				{ID: "wf", Name: "wf", Enabled: true, Trigger: &models.Trigger{Keyboard: mustSeq(t, tt.trigger)}},
			}}}
			c := NewController(keys, enginestate.New(models.StateEnabled), Options{})
			t.Cleanup(c.Close)
			c.SetIndex(shortcuts.NewBuilder(keys).Rebuild(groups, shortcuts.Environment{}))

			assert.Equal(t, Consume, c.Handle(Event{Type: KeyDown, Code: tt.code, Flags: tt.flags}))
			select {
			case tr := <-c.Triggers():
				assert.Equal(t, "wf", tr.Workflow.ID)
			default:
				t.Fatal("no trigger queued")
			}
		})
	}
}
