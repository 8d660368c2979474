package collector

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/internal/daemon/store"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/platform"
)

// ApplicationCollector polls the running applications and reports every
// change of the running set or of the frontmost application.
type ApplicationCollector struct {
	workspace platform.Workspace
	interval  time.Duration
	logger    *logrus.Entry
}

// NewApplicationCollector creates a collector polling every interval.
func NewApplicationCollector(ws platform.Workspace, interval time.Duration) *ApplicationCollector {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ApplicationCollector{
		workspace: ws,
		interval:  interval,
		logger:    logging.NewLogger("collector.applications"),
	}
}

// Name returns the collector's name.
func (c *ApplicationCollector) Name() string { return "applications" }

// Run polls until ctx is canceled. The first successful snapshot is always
// sent.
func (c *ApplicationCollector) Run(ctx context.Context, _ *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var (
		last platform.Snapshot
		have bool
	)
	scan := func() bool {
		snap, err := c.workspace.Snapshot(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.WithError(err).Debug("Application snapshot failed")
			}
			return true
		}
		if have && sameSnapshot(last, snap) {
			return true
		}
		last, have = snap, true
		return send(ctx, updates, store.Update{Type: store.UpdateApplications, Source: c.Name(), Payload: snap})
	}

	if !scan() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !scan() {
				return nil
			}
		}
	}
}

func sameSnapshot(a, b platform.Snapshot) bool {
	if a.Frontmost != b.Frontmost || len(a.Applications) != len(b.Applications) {
		return false
	}
	ids := a.BundleIdentifiers()
	other := b.BundleIdentifiers()
	slices.Sort(ids)
	slices.Sort(other)
	if !slices.Equal(ids, other) {
		return false
	}
	for _, app := range a.Applications {
		if o, ok := b.Find(app.BundleIdentifier); !ok || o.Hidden != app.Hidden || o.PID != app.PID {
			return false
		}
	}
	return true
}
