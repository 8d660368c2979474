package runner

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/debounce"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// Window index filters.
const (
	VisibleMinWidth  = 300
	VisibleMinHeight = 300
)

var excludedOwners = []string{"WindowManager", "Window Server"}

// Mission Control launch arguments.
const (
	missionControlApp = "Mission Control"
	argShowDesktop    = "1"
	argAppWindows     = "2"
)

// WindowIndex is a snapshot of the windows focus cycling walks through.
type WindowIndex struct {
	// AllInSpace holds every sized on-screen window, top to bottom.
	AllInSpace []platform.Window
	// Visible holds on-screen windows larger than 300x300.
	Visible []platform.Window
	// Front holds the frontmost application's windows.
	Front []platform.Window
}

// BuildWindowIndex derives the cycling collections from a window listing.
func BuildWindowIndex(windows []platform.Window, frontPID int) WindowIndex {
	var ix WindowIndex
	for _, w := range windows {
		if !w.OnScreen || w.Layer != 0 || slices.Contains(excludedOwners, w.Owner) {
			continue
		}
		if w.Bounds.Width <= 0 || w.Bounds.Height <= 0 {
			continue
		}
		ix.AllInSpace = append(ix.AllInSpace, w)
		if w.Bounds.Width > VisibleMinWidth && w.Bounds.Height > VisibleMinHeight {
			ix.Visible = append(ix.Visible, w)
		}
		if frontPID != 0 && w.OwnerPID == frontPID {
			ix.Front = append(ix.Front, w)
		}
	}
	slices.SortStableFunc(ix.AllInSpace, func(a, b platform.Window) int {
		switch {
		case a.Bounds.Y < b.Bounds.Y:
			return -1
		case a.Bounds.Y > b.Bounds.Y:
			return 1
		}
		return 0
	})
	return ix
}

// System cycles window focus and drives Mission Control. It also acts as the
// dispatch overlay: a run that starts while Mission Control is showing
// dismisses it first.
type System struct {
	ws      platform.Workspace
	windows platform.WindowServer
	poster  keytap.Poster
	logger  *logrus.Entry

	mu         sync.Mutex
	index      WindowIndex
	indexed    bool
	cursor     int
	frontIndex int

	overlay atomic.Bool
	reindex *debounce.Debouncer
}

// NewSystem builds the runner. debounceDelay coalesces ScheduleReindex calls.
func NewSystem(ws platform.Workspace, windows platform.WindowServer, poster keytap.Poster, debounceDelay time.Duration) *System {
	s := &System{
		ws:      ws,
		windows: windows,
		poster:  poster,
		logger:  logging.NewLogger("runner.system"),
	}
	s.reindex = debounce.New(debounceDelay, func() {
		if err := s.Reindex(context.Background()); err != nil {
			s.logger.WithError(err).Debug("Window reindex failed")
		}
	})
	return s
}

// ScheduleReindex asks for a fresh window index once input has been quiet
// for the debounce delay.
func (s *System) ScheduleReindex() {
	s.reindex.Trigger()
}

// Close stops any pending reindex.
func (s *System) Close() {
	s.reindex.Stop()
}

// Reindex rebuilds the window index now and resets the cycling cursors.
func (s *System) Reindex(ctx context.Context) error {
	windows, err := s.windows.Windows(ctx, true)
	if err != nil {
		return err
	}
	frontPID := 0
	if snap, err := s.ws.Snapshot(ctx); err == nil {
		if app, ok := snap.Find(snap.Frontmost); ok {
			frontPID = app.PID
		}
	}
	ix := BuildWindowIndex(windows, frontPID)

	s.mu.Lock()
	s.index = ix
	s.indexed = true
	s.cursor = 0
	s.frontIndex = 0
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"all":     len(ix.AllInSpace),
		"visible": len(ix.Visible),
		"front":   len(ix.Front),
	}).Debug("Indexed windows")
	return nil
}

// Index returns the current window index.
func (s *System) Index() WindowIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *System) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.SystemCommand)
	if !ok {
		return unexpected(models.KindSystem, cmd)
	}
	switch c.Action {
	case models.SystemNextWindow, models.SystemNextWindowGlobal:
		return s.cycle(ctx, c.Action, 1)
	case models.SystemPreviousWindow, models.SystemPreviousWindowGlobal:
		return s.cycle(ctx, c.Action, -1)
	case models.SystemNextWindowFront:
		return s.cycleFront(ctx, 1)
	case models.SystemPreviousWindowFront:
		return s.cycleFront(ctx, -1)
	case models.SystemShowDesktop:
		return s.ws.OpenApplication(ctx, missionControlApp, argShowDesktop)
	case models.SystemApplicationWindows:
		s.overlay.Store(true)
		return s.ws.OpenApplication(ctx, missionControlApp, argAppWindows)
	case models.SystemMissionControl:
		s.overlay.Store(true)
		return s.ws.OpenApplication(ctx, missionControlApp)
	default:
		return kferrors.New(kferrors.ErrCodeInvalidInput, "unknown system action: "+string(c.Action))
	}
}

// step moves cursor by delta through n items, wrapping at both ends.
func step(cursor, delta, n int) int {
	return ((cursor+delta)%n + n) % n
}

// ensureIndex builds the window index on first use, before any modifier
// release has scheduled one.
func (s *System) ensureIndex(ctx context.Context) error {
	s.mu.Lock()
	indexed := s.indexed
	s.mu.Unlock()
	if indexed {
		return nil
	}
	return s.Reindex(ctx)
}

func (s *System) cycle(ctx context.Context, action models.SystemAction, delta int) error {
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}
	global := action == models.SystemNextWindowGlobal || action == models.SystemPreviousWindowGlobal
	s.mu.Lock()
	collection := s.index.Visible
	if global {
		collection = s.index.AllInSpace
	}
	if len(collection) < 2 {
		s.mu.Unlock()
		return nil
	}
	s.cursor = step(s.cursor, delta, len(collection))
	target := collection[s.cursor]
	s.mu.Unlock()

	return s.focus(ctx, target)
}

func (s *System) cycleFront(ctx context.Context, delta int) error {
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	if len(s.index.Front) < 2 {
		s.mu.Unlock()
		return nil
	}
	s.frontIndex = step(s.frontIndex, delta, len(s.index.Front))
	target := s.index.Front[s.frontIndex]
	s.mu.Unlock()

	return s.windows.Raise(ctx, target)
}

// focus raises the window. When that fails the owning application is
// activated instead, and relaunched if activation fails too.
func (s *System) focus(ctx context.Context, target platform.Window) error {
	raiseErr := s.windows.Raise(ctx, target)
	if raiseErr == nil {
		return nil
	}
	snap, err := s.ws.Snapshot(ctx)
	if err != nil {
		return raiseErr
	}
	var owner platform.App
	found := false
	for _, app := range snap.Applications {
		if app.PID == target.OwnerPID {
			owner, found = app, true
			break
		}
	}
	if !found || owner.BundleIdentifier == "" {
		return raiseErr
	}
	log := s.logger.WithField("bundle", owner.BundleIdentifier)
	log.WithError(raiseErr).Debug("Raise failed, activating owner")
	if err := s.ws.Activate(ctx, owner.BundleIdentifier); err != nil {
		log.WithError(err).Debug("Activate failed, relaunching")
		return s.ws.Launch(ctx, owner.BundleIdentifier, platform.LaunchOptions{})
	}
	return nil
}

// DismissIfActive closes Mission Control if a previous command opened it.
func (s *System) DismissIfActive(context.Context) {
	if !s.overlay.CompareAndSwap(true, false) {
		return
	}
	flags := keycodes.EventFlags(keycodes.CodeEscape, nil)
	if err := s.poster.PostKey(keycodes.CodeEscape, flags, true); err != nil {
		s.logger.WithError(err).Debug("Dismissing overlay failed")
		return
	}
	_ = s.poster.PostKey(keycodes.CodeEscape, flags, false)
}
