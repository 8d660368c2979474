// Package apptrigger fires workflows when applications launch, quit or come
// to the front.
package apptrigger

import (
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/gate"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// Event is one observed application change.
type Event struct {
	Context          models.ApplicationContext
	BundleIdentifier string
}

// Diff derives the launch, termination and frontmost events between two
// snapshots of the running applications.
func Diff(prev, next platform.Snapshot) []Event {
	var events []Event
	for _, id := range next.BundleIdentifiers() {
		if !prev.Running(id) {
			events = append(events, Event{Context: models.ContextLaunched, BundleIdentifier: id})
		}
	}
	for _, id := range prev.BundleIdentifiers() {
		if !next.Running(id) {
			events = append(events, Event{Context: models.ContextClosed, BundleIdentifier: id})
		}
	}
	if next.Frontmost != "" && next.Frontmost != prev.Frontmost {
		events = append(events, Event{Context: models.ContextFrontmost, BundleIdentifier: next.Frontmost})
	}
	return events
}

// Fired is a workflow selected by an application event.
type Fired struct {
	Workflow *models.Workflow
	Group    *models.Group
	Event    Event
}

// Controller tracks which applications already fired their launch
// workflows. Launch workflows fire at most once per launch; a termination
// clears the application so a relaunch fires again.
type Controller struct {
	logger *logrus.Entry

	mu        sync.Mutex
	triggered map[string]struct{}
}

func New() *Controller {
	return &Controller{
		triggered: make(map[string]struct{}),
		logger:    logging.NewLogger("apptrigger"),
	}
}

// Seed marks the applications already running at startup as triggered so
// they do not fire launch workflows.
func (c *Controller) Seed(snap platform.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range snap.BundleIdentifiers() {
		c.triggered[id] = struct{}{}
	}
}

// Triggered reports whether bundleID has fired since its last launch.
func (c *Controller) Triggered(bundleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.triggered[bundleID]
	return ok
}

// Handle returns the workflows ev selects from groups. The groups are read
// fresh on every call.
func (c *Controller) Handle(ev Event, groups []models.Group, state models.EngineState) []Fired {
	switch ev.Context {
	case models.ContextLaunched:
		c.mu.Lock()
		_, seen := c.triggered[ev.BundleIdentifier]
		c.triggered[ev.BundleIdentifier] = struct{}{}
		c.mu.Unlock()
		if seen {
			return nil
		}
	case models.ContextClosed:
		c.mu.Lock()
		delete(c.triggered, ev.BundleIdentifier)
		c.mu.Unlock()
	}

	var fired []Fired
	for gi := range groups {
		g := &groups[gi]
		for wi := range g.Workflows {
			wf := &g.Workflows[wi]
			if !selects(wf, ev) {
				continue
			}
			if !gate.Eligible(wf, g, state) {
				continue
			}
			fired = append(fired, Fired{Workflow: wf, Group: g, Event: ev})
		}
	}
	if len(fired) > 0 {
		c.logger.WithFields(logrus.Fields{
			"bundle":  ev.BundleIdentifier,
			"context": ev.Context,
			"count":   len(fired),
		}).Debug("Application trigger fired")
	}
	return fired
}

func selects(wf *models.Workflow, ev Event) bool {
	if ev.Context == models.ContextLaunched && slices.Contains(wf.Metadata.RunWhenApplicationsAreLaunched, ev.BundleIdentifier) {
		return true
	}
	if wf.Trigger == nil {
		return false
	}
	for _, t := range wf.Trigger.Application {
		if t.BundleIdentifier == ev.BundleIdentifier && t.Fires(ev.Context) {
			return true
		}
	}
	return false
}
