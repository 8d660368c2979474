package keytap

import (
	"time"

	"github.com/grovetools/keyflow/pkg/models"
)

// Sequence buffers the keys of a partially typed sequence and forgets them
// once the inter-key timeout has passed.
type Sequence struct {
	keys       []models.KeyShortcut
	lastUpdate time.Time
	timeout    time.Duration
}

// NewSequence creates a buffer with the given inter-key timeout. A zero
// timeout never expires.
func NewSequence(timeout time.Duration) *Sequence {
	return &Sequence{timeout: timeout}
}

// Expired reports whether the timeout has elapsed since the last key.
func (s *Sequence) Expired(now time.Time) bool {
	return s.timeout > 0 && len(s.keys) > 0 && now.Sub(s.lastUpdate) > s.timeout
}

// Push appends ks and returns the candidate sequence. An expired buffer is
// cleared first, so a late key starts a new sequence.
func (s *Sequence) Push(ks models.KeyShortcut, now time.Time) []models.KeyShortcut {
	if s.Expired(now) {
		s.keys = s.keys[:0]
	}
	s.lastUpdate = now
	s.keys = append(s.keys, ks)
	return s.Keys()
}

// Clear resets the buffer. Call this after a match or a miss.
func (s *Sequence) Clear() {
	s.keys = s.keys[:0]
}

// Keys returns a copy of the buffered keys.
func (s *Sequence) Keys() []models.KeyShortcut {
	out := make([]models.KeyShortcut, len(s.keys))
	copy(out, s.keys)
	return out
}

// IsPending reports whether keys are buffered.
func (s *Sequence) IsPending() bool {
	return len(s.keys) > 0
}
