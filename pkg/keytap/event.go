// Package keytap sits on the system keyboard event stream. It turns raw key
// events into shortcut matches, recordings and pass-through decisions.
package keytap

import (
	"time"

	"github.com/grovetools/keyflow/pkg/models"
)

// EventType is the kind of raw keyboard event.
type EventType int

const (
	KeyDown EventType = iota
	KeyUp
	FlagsChanged
)

func (t EventType) String() string {
	switch t {
	case KeyDown:
		return "keyDown"
	case KeyUp:
		return "keyUp"
	case FlagsChanged:
		return "flagsChanged"
	}
	return "unknown"
}

// Event is a raw keyboard event as delivered by the OS tap.
type Event struct {
	Type  EventType
	Code  uint16
	Flags models.ModifierFlags
	// Repeat is set for auto-repeat key downs.
	Repeat bool
	// Synthetic is set for events posted by keyflow itself.
	Synthetic bool
}

// Verdict tells the OS tap what to do with an event.
type Verdict int

const (
	Forward Verdict = iota
	Consume
)

func (v Verdict) String() string {
	if v == Consume {
		return "consume"
	}
	return "forward"
}

// Phase is the matching state of the controller.
type Phase int

const (
	Idle Phase = iota
	AwaitingContinuation
	Recording
)

func (p Phase) String() string {
	switch p {
	case AwaitingContinuation:
		return "awaitingSequenceContinuation"
	case Recording:
		return "recording"
	}
	return "idle"
}

// Trigger is a complete match that passed the trigger gate.
type Trigger struct {
	Workflow *models.Workflow
	Group    *models.Group
	Sequence []models.KeyShortcut
}

// Recorded is a key captured while recording.
type Recorded struct {
	Shortcut models.KeyShortcut `json:"shortcut"`
	ID       string             `json:"id"`
	Code     uint16             `json:"code"`
	Flags    uint64             `json:"flags"`
	Time     time.Time          `json:"time"`
}

// Tap is an installed OS event tap.
type Tap interface {
	// Start installs the tap and routes every event through handler. It
	// fails with MISSING_CAPABILITY when the OS denies the tap.
	Start(handler func(Event) Verdict) error
	Stop()
}

// Poster synthesizes keyboard events. Posted events carry the keyflow source
// marker so the tap forwards them untouched.
type Poster interface {
	PostKey(code uint16, flags models.ModifierFlags, down bool) error
	PostText(text string) error
}

// SourceMarker tags events posted by keyflow.
const SourceMarker int64 = 0x6B666C77
