// Package enginestate owns the enabled/disabled/recording state of the
// engine. Reads are lock free; writes go through explicit signals.
package enginestate

import (
	"sync"
	"sync/atomic"

	"github.com/grovetools/keyflow/pkg/models"
)

// Signal is an explicit state transition request.
type Signal string

const (
	SignalEnable         Signal = "enable"
	SignalDisable        Signal = "disable"
	SignalToggle         Signal = "toggle"
	SignalStartRecording Signal = "record"
	SignalStopRecording  Signal = "stopRecording"
)

// Change describes a transition.
type Change struct {
	From models.EngineState
	To   models.EngineState
}

// Machine holds the engine state. The state before recording is remembered so
// that stopping a recording returns to it.
type Machine struct {
	state atomic.Value // models.EngineState

	mu           sync.Mutex
	beforeRecord models.EngineState
	subscribers  map[chan Change]struct{}
}

// New creates a Machine in the initial state.
func New(initial models.EngineState) *Machine {
	if !initial.Valid() {
		initial = models.StateEnabled
	}
	m := &Machine{subscribers: make(map[chan Change]struct{}), beforeRecord: models.StateEnabled}
	m.state.Store(initial)
	return m
}

// Current returns the state. Safe to call from the tap callback.
func (m *Machine) Current() models.EngineState {
	return m.state.Load().(models.EngineState)
}

// Apply performs the transition for sig and reports the change. Signals that
// do not change the state return ok=false.
func (m *Machine) Apply(sig Signal) (Change, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.Current()
	to := from
	switch sig {
	case SignalEnable:
		to = models.StateEnabled
	case SignalDisable:
		to = models.StateDisabled
	case SignalToggle:
		switch from {
		case models.StateDisabled:
			to = models.StateEnabled
		case models.StateEnabled:
			to = models.StateDisabled
		case models.StateRecording:
			to = m.beforeRecord
		}
	case SignalStartRecording:
		if from != models.StateRecording {
			m.beforeRecord = from
		}
		to = models.StateRecording
	case SignalStopRecording:
		if from == models.StateRecording {
			to = m.beforeRecord
		}
	}

	if to == from {
		return Change{From: from, To: to}, false
	}
	m.state.Store(to)
	change := Change{From: from, To: to}
	for ch := range m.subscribers {
		select {
		case ch <- change:
		default:
		}
	}
	return change, true
}

// Set moves to an explicit state.
func (m *Machine) Set(state models.EngineState) (Change, bool) {
	switch state {
	case models.StateEnabled:
		return m.Apply(SignalEnable)
	case models.StateDisabled:
		return m.Apply(SignalDisable)
	case models.StateRecording:
		return m.Apply(SignalStartRecording)
	}
	return Change{From: m.Current(), To: m.Current()}, false
}

// Subscribe returns a channel receiving every transition. Slow subscribers
// miss changes rather than blocking the writer.
func (m *Machine) Subscribe() chan Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Change, 8)
	m.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (m *Machine) Unsubscribe(ch chan Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		close(ch)
	}
}
