package keytap

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/debounce"
	"github.com/grovetools/keyflow/pkg/gate"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/shortcuts"
)

// Resolver turns a raw key event into a shortcut.
type Resolver interface {
	Shortcut(code uint16, flags models.ModifierFlags) (models.KeyShortcut, error)
}

// StateReader exposes the current engine state.
type StateReader interface {
	Current() models.EngineState
}

// Options configures a Controller.
type Options struct {
	// SequenceTimeout resets a partial sequence when no key follows in time.
	SequenceTimeout time.Duration
	// ModifierSettleDelay is the quiet period after the last modifier release
	// before OnModifiersSettled runs.
	ModifierSettleDelay time.Duration
	OnModifiersSettled  func()
	// TriggerBuffer and RecordingBuffer size the outgoing channels. Events
	// that do not fit are dropped.
	TriggerBuffer   int
	RecordingBuffer int
	// Now is the clock used for sequence timeouts.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.SequenceTimeout == 0 {
		o.SequenceTimeout = time.Second
	}
	if o.ModifierSettleDelay == 0 {
		o.ModifierSettleDelay = 250 * time.Millisecond
	}
	if o.TriggerBuffer == 0 {
		o.TriggerBuffer = 16
	}
	if o.RecordingBuffer == 0 {
		o.RecordingBuffer = 64
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Controller is the per-event state machine behind the OS tap. Handle only
// does work proportional to the sequence length; everything else is handed
// off through channels or debounced callbacks.
type Controller struct {
	resolver Resolver
	state    StateReader
	index    atomic.Pointer[shortcuts.Index]
	opts     Options
	logger   *logrus.Entry

	mu         sync.Mutex
	seq        *Sequence
	phase      Phase
	timer      *time.Timer
	generation uint64
	consumed   map[uint16]struct{}

	settle     *debounce.Debouncer
	triggers   chan Trigger
	recordings chan Recorded
}

// NewController creates a controller reading the engine state from state.
func NewController(resolver Resolver, state StateReader, opts Options) *Controller {
	opts.setDefaults()
	c := &Controller{
		resolver:   resolver,
		state:      state,
		opts:       opts,
		logger:     logging.NewLogger("keytap"),
		seq:        NewSequence(opts.SequenceTimeout),
		consumed:   make(map[uint16]struct{}),
		triggers:   make(chan Trigger, opts.TriggerBuffer),
		recordings: make(chan Recorded, opts.RecordingBuffer),
	}
	if opts.OnModifiersSettled != nil {
		c.settle = debounce.New(opts.ModifierSettleDelay, opts.OnModifiersSettled)
	}
	return c
}

// SetIndex swaps in a freshly built index. A pending partial sequence is
// dropped because it was matched against the old index.
func (c *Controller) SetIndex(ix *shortcuts.Index) {
	c.index.Store(ix)
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

// Index returns the index currently used for matching.
func (c *Controller) Index() *shortcuts.Index {
	return c.index.Load()
}

// Triggers delivers complete matches that passed the trigger gate.
func (c *Controller) Triggers() <-chan Trigger {
	return c.triggers
}

// Recordings delivers keys captured while the engine is recording.
func (c *Controller) Recordings() <-chan Recorded {
	return c.recordings
}

// Phase returns the current matching phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Close stops pending timers.
func (c *Controller) Close() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	if c.settle != nil {
		c.settle.Stop()
	}
}

// Handle decides the fate of one raw event.
func (c *Controller) Handle(ev Event) Verdict {
	if ev.Synthetic {
		return Forward
	}

	switch ev.Type {
	case FlagsChanged:
		c.handleFlags(ev)
		return Forward
	case KeyUp:
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.consumed[ev.Code]; ok {
			delete(c.consumed, ev.Code)
			return Consume
		}
		return Forward
	case KeyDown:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.handleKeyDown(ev)
	}
	return Forward
}

func (c *Controller) handleFlags(ev Event) {
	if c.settle == nil {
		return
	}
	if ev.Flags.HasStandardModifier() {
		c.settle.Cancel()
		return
	}
	c.settle.Trigger()
}

func (c *Controller) handleKeyDown(ev Event) Verdict {
	state := c.state.Current()

	if state == models.StateRecording {
		c.resetLocked()
		c.phase = Recording
		c.record(ev)
		c.consumed[ev.Code] = struct{}{}
		return Consume
	}
	if c.phase == Recording {
		c.phase = Idle
	}

	if ev.Repeat {
		if _, ok := c.consumed[ev.Code]; ok {
			return Consume
		}
	}

	ks, err := c.resolver.Shortcut(ev.Code, ev.Flags)
	if err != nil {
		c.logger.WithError(err).WithField("code", ev.Code).Debug("Dropping unresolved key")
		c.resetLocked()
		return Forward
	}

	ix := c.index.Load()
	match := func(seq []models.KeyShortcut) shortcuts.Match {
		if state == models.StateDisabled {
			return ix.MatchControl(seq)
		}
		return ix.Match(seq)
	}

	now := c.opts.Now()
	wasPending := c.seq.IsPending() && !c.seq.Expired(now)
	candidate := c.seq.Push(ks, now)
	m := match(candidate)

	// A key that breaks a pending sequence is tried again on its own.
	if m.Kind == shortcuts.None && wasPending {
		c.seq.Clear()
		candidate = c.seq.Push(ks, now)
		m = match(candidate)
	}

	switch m.Kind {
	case shortcuts.Partial:
		c.phase = AwaitingContinuation
		c.armTimeoutLocked()
		c.consumed[ev.Code] = struct{}{}
		return Consume

	case shortcuts.Complete:
		c.resetLocked()
		c.consumed[ev.Code] = struct{}{}
		if ok, reason := gate.Decide(m.Workflow, state); !ok {
			c.logger.WithFields(logrus.Fields{
				"workflow": m.Workflow.Name,
				"reason":   string(reason),
			}).Debug("Trigger gate denied workflow")
			return Consume
		}
		select {
		case c.triggers <- Trigger{Workflow: m.Workflow, Group: m.Group, Sequence: candidate}:
		default:
			c.logger.WithField("workflow", m.Workflow.Name).Debug("Trigger channel full, dropping match")
		}
		return Consume
	}

	c.resetLocked()
	return Forward
}

func (c *Controller) record(ev Event) {
	ks, err := c.resolver.Shortcut(ev.Code, ev.Flags)
	if err != nil {
		c.logger.WithError(err).WithField("code", ev.Code).Debug("Recorded key has no logical mapping")
		return
	}
	rec := Recorded{Shortcut: ks, ID: ks.ID(), Code: ev.Code, Flags: uint64(ev.Flags), Time: c.opts.Now()}
	select {
	case c.recordings <- rec:
	default:
	}
}

// armTimeoutLocked schedules a reset of the partial sequence. The expiry
// check in Sequence.Push covers a timer that fires late.
func (c *Controller) armTimeoutLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.timer = time.AfterFunc(c.opts.SequenceTimeout, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			return
		}
		c.seq.Clear()
		c.phase = Idle
		c.timer = nil
	})
}

func (c *Controller) resetLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.seq.Clear()
	if c.phase == AwaitingContinuation {
		c.phase = Idle
	}
}
