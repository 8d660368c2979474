package store

import (
	"slices"
	"sync"
	"time"

	"github.com/grovetools/keyflow/pkg/dispatch"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// Store is the in-memory state store for the daemon.
// It is thread-safe and supports pub/sub for real-time updates.
type Store struct {
	mu          sync.RWMutex
	state       *State
	subscribers map[chan Update]struct{}
}

// New creates a new Store instance.
func New() *Store {
	return &Store{
		state: &State{
			EngineState: models.StateEnabled,
			StartedAt:   time.Now(),
		},
		subscribers: make(map[chan Update]struct{}),
	}
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := *s.state
	st.Running = slices.Clone(s.state.Running)
	return st
}

// ApplyUpdate modifies the state and notifies subscribers.
func (s *Store) ApplyUpdate(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Type {
	case UpdateApplications:
		if snap, ok := u.Payload.(platform.Snapshot); ok {
			s.state.Frontmost = snap.Frontmost
			s.state.Running = snap.BundleIdentifiers()
		}
	case UpdatePermission:
		if trusted, ok := u.Payload.(bool); ok {
			s.state.Trusted = trusted
		}
	case UpdateTap:
		if installed, ok := u.Payload.(bool); ok {
			s.state.TapInstalled = installed
		}
	case UpdateEngineState:
		if st, ok := u.Payload.(models.EngineState); ok {
			s.state.EngineState = st
		}
	case UpdateIndex:
		if info, ok := u.Payload.(IndexInfo); ok {
			s.state.Index = info
		}
	case UpdateExecuted:
		if ex, ok := u.Payload.(dispatch.Executed); ok {
			s.state.LastCommand = &ex
		}
	case UpdateConfigReload:
		if r, ok := u.Payload.(ConfigReload); ok {
			s.state.ConfigError = r.Error
			if r.Error == "" {
				s.state.LoadedAt = time.Now()
			}
		}
	}
	// UpdateRecorded and UpdateQuickRun are streamed, not stored.

	s.broadcastLocked(u)
}

func (s *Store) broadcastLocked(u Update) {
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Non-blocking send to prevent slow clients from stalling the daemon
		}
	}
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100) // Buffered
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}
