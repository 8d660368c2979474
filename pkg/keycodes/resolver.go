package keycodes

import (
	"sync/atomic"

	"github.com/grovetools/keyflow/pkg/models"
)

// Resolver hands out the store for the active layout. The store is swapped
// atomically so the tap callback never waits on a layout change.
type Resolver struct {
	current atomic.Pointer[Store]
	source  func() (Layout, error)
}

// NewResolver creates a resolver and loads the layout from source. When
// source is nil or fails, the built-in ANSI table is used.
func NewResolver(source func() (Layout, error)) *Resolver {
	r := &Resolver{source: source}
	r.Reload()
	return r
}

// Reload re-reads the active layout. It returns false when the fallback
// table had to be used.
func (r *Resolver) Reload() bool {
	layout, ok := ANSI(), false
	if r.source != nil {
		if l, err := r.source(); err == nil && len(l.Keys) > 0 {
			layout, ok = l, true
		}
	}
	if cur := r.current.Load(); cur != nil && cur.LayoutID() == layout.ID && ok {
		return true
	}
	r.current.Store(NewStore(layout))
	return ok
}

// Store returns the store for the active layout.
func (r *Resolver) Store() *Store {
	return r.current.Load()
}

// Resolve maps a hardware code to a logical key under the active layout.
func (r *Resolver) Resolve(code uint16) (string, error) {
	return r.Store().Resolve(code)
}

// KeyCode maps a logical key to a hardware code under the active layout.
func (r *Resolver) KeyCode(key string) (uint16, error) {
	return r.Store().KeyCode(key)
}

// Canonical rewrites a configured shortcut to the active layout's spelling.
func (r *Resolver) Canonical(k models.KeyShortcut) (models.KeyShortcut, error) {
	return r.Store().Canonical(k)
}

// Shortcut builds a KeyShortcut from a raw key event.
func (r *Resolver) Shortcut(code uint16, flags models.ModifierFlags) (models.KeyShortcut, error) {
	return r.Store().Shortcut(code, flags)
}

// VirtualKey returns the code and modifiers that type character.
func (r *Resolver) VirtualKey(character string) (VirtualKey, error) {
	return r.Store().VirtualKey(character)
}
