package collector

import (
	"context"
	"time"

	"github.com/grovetools/keyflow/internal/daemon/store"
)

// PermissionCollector watches the accessibility permission the event tap
// needs and reports when it is granted or revoked.
type PermissionCollector struct {
	check    func() bool
	interval time.Duration
}

// NewPermissionCollector creates a collector calling check every interval.
func NewPermissionCollector(check func() bool, interval time.Duration) *PermissionCollector {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PermissionCollector{check: check, interval: interval}
}

// Name returns the collector's name.
func (c *PermissionCollector) Name() string { return "permission" }

// Run reports the initial permission and every change after it.
func (c *PermissionCollector) Run(ctx context.Context, _ *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := c.check()
	if !send(ctx, updates, store.Update{Type: store.UpdatePermission, Source: c.Name(), Payload: last}) {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if now := c.check(); now != last {
				last = now
				if !send(ctx, updates, store.Update{Type: store.UpdatePermission, Source: c.Name(), Payload: now}) {
					return nil
				}
			}
		}
	}
}
