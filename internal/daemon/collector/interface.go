// Package collector provides background workers that observe the desktop and
// feed the daemon store.
package collector

import (
	"context"

	"github.com/grovetools/keyflow/internal/daemon/store"
)

// Collector watches one source of desktop state, such as running
// applications or the accessibility grant.
type Collector interface {
	Name() string
	// Run sends an update whenever the observed state changes and returns
	// when ctx is done. st is read-only to collectors.
	Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error
}

// send delivers u unless ctx ends first.
func send(ctx context.Context, updates chan<- store.Update, u store.Update) bool {
	select {
	case updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
