// Package engine wires the keyflow components together and runs the
// background collectors that feed them.
package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/config"
	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/internal/daemon/collector"
	"github.com/grovetools/keyflow/internal/daemon/store"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/apps"
	"github.com/grovetools/keyflow/pkg/apptrigger"
	"github.com/grovetools/keyflow/pkg/debounce"
	"github.com/grovetools/keyflow/pkg/dispatch"
	"github.com/grovetools/keyflow/pkg/enginestate"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
	"github.com/grovetools/keyflow/pkg/runner"
	"github.com/grovetools/keyflow/pkg/shortcuts"
)

// Platform is every desktop collaborator the runners drive.
type Platform interface {
	platform.Workspace
	platform.WindowServer
	platform.Scripter
	platform.MenuBar
	platform.Shortcuts
	dispatch.Notifier
}

// Options configures an Engine.
type Options struct {
	Settings *config.Settings
	Platform Platform
	Tap      keytap.Tap
	Poster   keytap.Poster
	// Layout reads the active keyboard layout. Nil uses the built-in table.
	Layout func() (keycodes.Layout, error)
	// Installed repairs stale application paths on every groups load.
	Installed apps.Lookup
	// LoadGroups reads the groups file. Defaults to config.LoadGroups.
	LoadGroups func(path string) ([]models.Group, error)
}

// Engine manages the event tap, the dispatch engine and all collectors.
type Engine struct {
	store      *store.Store
	collectors []collector.Collector
	logger     *logrus.Entry

	settings   *config.Settings
	tap        keytap.Tap
	installed  apps.Lookup
	loadGroups func(string) ([]models.Group, error)

	machine    *enginestate.Machine
	resolver   *keycodes.Resolver
	builder    *shortcuts.Builder
	controller *keytap.Controller
	dispatcher *dispatch.Engine
	runners    *runner.Set
	launches   *apptrigger.Controller
	frontmost  *debounce.Latest[shortcuts.Environment]

	groups atomic.Pointer[[]models.Group]
	runCtx atomic.Pointer[context.Context]

	mu           sync.Mutex
	snapshot     platform.Snapshot
	haveSnapshot bool
	tapInstalled bool
	tapWarned    bool
}

// New creates an Engine. Nothing is observed or installed until Start.
func New(st *store.Store, opts Options) *Engine {
	settings := opts.Settings
	if settings == nil {
		settings = config.Default()
	}
	initial := models.StateEnabled
	if settings.Engine.StartDisabled {
		initial = models.StateDisabled
	}

	resolver := keycodes.NewResolver(opts.Layout)
	e := &Engine{
		store:      st,
		logger:     logging.NewLogger("engine"),
		settings:   settings,
		tap:        opts.Tap,
		installed:  opts.Installed,
		loadGroups: opts.LoadGroups,
		machine:    enginestate.New(initial),
		resolver:   resolver,
		builder:    shortcuts.NewBuilder(resolver),
		launches:   apptrigger.New(),
	}
	if e.loadGroups == nil {
		e.loadGroups = config.LoadGroups
	}
	empty := []models.Group{}
	e.groups.Store(&empty)
	st.ApplyUpdate(store.Update{Type: store.UpdateEngineState, Source: "engine", Payload: initial})

	e.runners = runner.NewSet(runner.Deps{
		Workspace: opts.Platform,
		Windows:   opts.Platform,
		Scripts:   opts.Platform,
		Menus:     opts.Platform,
		Shortcuts: opts.Platform,
		Keys:      e.resolver,
		Poster:    opts.Poster,
		State:     e.machine,
		LastKeyboard: func() (models.KeyboardCommand, bool) {
			return e.dispatcher.LastKeyboard()
		},
		Typing:              runner.NaturalTyping(settings.Engine.NaturalTyping),
		WindowIndexDebounce: settings.Engine.WindowIndexDebounce(),
	})
	e.runners.BuiltIn.OnQuickRun = func() {
		st.ApplyUpdate(store.Update{Type: store.UpdateQuickRun, Source: "engine"})
	}
	e.dispatcher = dispatch.New(dispatch.Options{
		SerialDelay: settings.Engine.SerialDelay(),
		Overlay:     e.runners.System,
		Notifier:    opts.Platform,
		OnExecuted: func(ex dispatch.Executed) {
			st.ApplyUpdate(store.Update{Type: store.UpdateExecuted, Source: "dispatch", Payload: ex})
		},
	})
	e.runners.Register(e.dispatcher)

	e.controller = keytap.NewController(e.resolver, e.machine, keytap.Options{
		SequenceTimeout:    settings.Engine.SequenceTimeout(),
		OnModifiersSettled: e.runners.System.ScheduleReindex,
	})
	e.frontmost = debounce.NewLatest(settings.Engine.FrontmostDebounce(), e.rebuild)
	return e
}

// Register adds a collector to the engine.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Store returns the engine's state store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// State returns the engine state machine.
func (e *Engine) State() *enginestate.Machine {
	return e.machine
}

// Groups returns the current groups snapshot. Callers must not mutate it.
func (e *Engine) Groups() []models.Group {
	return *e.groups.Load()
}

// Index returns the shortcut index in use.
func (e *Engine) Index() *shortcuts.Index {
	return e.controller.Index()
}

// SetGroups replaces the groups snapshot and rebuilds the index right away.
func (e *Engine) SetGroups(groups []models.Group) {
	if e.installed != nil {
		if n := apps.Patch(groups, e.installed); n > 0 {
			e.logger.WithField("patched", n).Info("Repaired stale application paths")
		}
	}
	e.groups.Store(&groups)
	e.rebuild(e.environment())
}

// Reload reads the groups file again. On failure the previous groups stay
// active and the error is published.
func (e *Engine) Reload() error {
	path := e.settings.GroupsFile
	groups, err := e.loadGroups(path)
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Warn("Keeping previous groups")
		e.store.ApplyUpdate(store.Update{
			Type:    store.UpdateConfigReload,
			Source:  "config",
			Payload: store.ConfigReload{File: path, Error: err.Error()},
		})
		return err
	}
	e.SetGroups(groups)
	e.logger.WithFields(logrus.Fields{"path": path, "groups": len(groups)}).Info("Groups loaded")
	e.store.ApplyUpdate(store.Update{
		Type:    store.UpdateConfigReload,
		Source:  "config",
		Payload: store.ConfigReload{File: path},
	})
	return nil
}

func (e *Engine) environment() shortcuts.Environment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return shortcuts.Environment{Frontmost: e.snapshot.Frontmost, Running: e.snapshot.BundleIdentifiers()}
}

func (e *Engine) rebuild(env shortcuts.Environment) {
	groups := e.Groups()
	ix := e.builder.Rebuild(groups, env)
	e.controller.SetIndex(ix)

	workflows := 0
	for _, g := range groups {
		workflows += len(g.Workflows)
	}
	e.store.ApplyUpdate(store.Update{Type: store.UpdateIndex, Source: "engine", Payload: store.IndexInfo{
		Groups:    len(groups),
		Workflows: workflows,
		Entries:   ix.Len(),
		Frontmost: env.Frontmost,
	}})
}

// Start runs all collectors and the trigger loop and blocks until ctx is
// canceled.
func (e *Engine) Start(ctx context.Context) {
	e.runCtx.Store(&ctx)
	updates := make(chan store.Update, 100)
	states := e.machine.Subscribe()
	var wg sync.WaitGroup

	e.rebuild(e.environment())
	e.ensureTap()

	// 1. Update consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				e.observe(ctx, u)
				e.store.ApplyUpdate(u)
			}
		}
	}()

	// 2. Trigger, recording and state loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-e.controller.Triggers():
				e.logger.WithFields(logrus.Fields{
					"workflow": t.Workflow.Name,
					"group":    t.Group.Name,
					"sequence": models.SequenceID(t.Sequence),
				}).Debug("Workflow triggered")
				e.dispatcher.Run(ctx, t.Workflow)
			case r := <-e.controller.Recordings():
				e.store.ApplyUpdate(store.Update{Type: store.UpdateRecorded, Source: "keytap", Payload: r})
			case change, ok := <-states:
				if !ok {
					return
				}
				e.logger.WithFields(logrus.Fields{"from": change.From, "to": change.To}).Info("Engine state changed")
				e.store.ApplyUpdate(store.Update{Type: store.UpdateEngineState, Source: "engine", Payload: change.To})
			}
		}
	}()

	// 3. Collectors
	for _, c := range e.collectors {
		wg.Add(1)
		go func(col collector.Collector) {
			defer wg.Done()
			e.logger.WithField("collector", col.Name()).Info("Starting collector")
			if err := col.Run(ctx, e.store, updates); err != nil {
				e.logger.WithField("collector", col.Name()).WithError(err).Error("Collector failed")
			}
		}(c)
	}

	wg.Wait()
	e.shutdown(states)
}

func (e *Engine) shutdown(states chan enginestate.Change) {
	e.machine.Unsubscribe(states)
	e.frontmost.Stop()
	e.dispatcher.Cancel()
	e.mu.Lock()
	if e.tapInstalled && e.tap != nil {
		e.tap.Stop()
		e.tapInstalled = false
	}
	e.mu.Unlock()
	e.controller.Close()
	e.runners.System.Close()
	e.logger.Info("Engine stopped")
}

// observe reacts to collector updates before they reach the store.
func (e *Engine) observe(ctx context.Context, u store.Update) {
	switch u.Type {
	case store.UpdateApplications:
		snap, ok := u.Payload.(platform.Snapshot)
		if !ok {
			return
		}
		e.mu.Lock()
		prev, had := e.snapshot, e.haveSnapshot
		e.snapshot, e.haveSnapshot = snap, true
		e.mu.Unlock()

		env := shortcuts.Environment{Frontmost: snap.Frontmost, Running: snap.BundleIdentifiers()}
		if !had {
			// Applications running before the daemon never fire launch workflows.
			e.launches.Seed(snap)
			e.rebuild(env)
			return
		}
		e.fireApplicationEvents(ctx, apptrigger.Diff(prev, snap))
		if prev.Frontmost != snap.Frontmost {
			e.resolver.Reload()
			e.ensureTap()
		}
		if prev.Frontmost != snap.Frontmost || !slices.Equal(prev.BundleIdentifiers(), env.Running) {
			e.frontmost.Push(env)
		}

	case store.UpdatePermission:
		if trusted, ok := u.Payload.(bool); ok && trusted {
			e.ensureTap()
		}
	}
}

func (e *Engine) fireApplicationEvents(ctx context.Context, events []apptrigger.Event) {
	if len(events) == 0 {
		return
	}
	groups := e.Groups()
	state := e.machine.Current()
	for _, ev := range events {
		for _, f := range e.launches.Handle(ev, groups, state) {
			e.logger.WithFields(logrus.Fields{
				"workflow": f.Workflow.Name,
				"context":  string(f.Event.Context),
				"app":      f.Event.BundleIdentifier,
			}).Info("Application trigger fired")
			e.dispatcher.Run(ctx, f.Workflow)
		}
	}
}

// ensureTap installs the event tap if it is not installed yet. Missing
// permission is reported once and retried on the next activation.
func (e *Engine) ensureTap() {
	if e.tap == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tapInstalled {
		return
	}
	if err := e.tap.Start(e.controller.Handle); err != nil {
		if !e.tapWarned {
			e.logger.WithError(err).Warn("Event tap not installed; waiting for accessibility permission")
			e.tapWarned = true
		} else {
			e.logger.WithError(err).Debug("Event tap still unavailable")
		}
		return
	}
	e.tapInstalled = true
	e.store.ApplyUpdate(store.Update{Type: store.UpdateTap, Source: "engine", Payload: true})
}

// Signal applies an engine-state transition.
func (e *Engine) Signal(sig enginestate.Signal) (enginestate.Change, bool) {
	return e.machine.Apply(sig)
}

// SetState moves the engine to an explicit state.
func (e *Engine) SetState(state models.EngineState) (enginestate.Change, bool) {
	return e.machine.Set(state)
}

// RunWorkflow starts the workflow with the given id or name regardless of
// its trigger.
func (e *Engine) RunWorkflow(idOrName string) (*models.Workflow, *dispatch.Task, error) {
	wf, _ := models.FindWorkflow(e.Groups(), idOrName)
	if wf == nil {
		return nil, nil, kferrors.New(kferrors.ErrCodeInvalidInput, fmt.Sprintf("no workflow named '%s'", idOrName))
	}
	if !wf.Enabled {
		return wf, nil, kferrors.New(kferrors.ErrCodeInvalidInput, fmt.Sprintf("workflow '%s' is disabled", wf.Name))
	}
	e.logger.WithField("workflow", wf.Name).Info("Quick run")
	return wf, e.dispatcher.Run(e.context(), wf), nil
}

// Reveal shows the targets of a workflow's commands.
func (e *Engine) Reveal(ctx context.Context, idOrName string) error {
	wf, _ := models.FindWorkflow(e.Groups(), idOrName)
	if wf == nil {
		return kferrors.New(kferrors.ErrCodeInvalidInput, fmt.Sprintf("no workflow named '%s'", idOrName))
	}
	return e.dispatcher.Reveal(ctx, wf.Commands)
}

// LastExecuted returns the most recent notification-enabled command.
func (e *Engine) LastExecuted() (dispatch.Executed, bool) {
	return e.dispatcher.LastExecuted()
}

// ListShortcuts returns the saved Shortcuts-app shortcuts.
func (e *Engine) ListShortcuts(ctx context.Context) ([]string, error) {
	return e.runners.Shortcut.List(ctx)
}

func (e *Engine) context() context.Context {
	if p := e.runCtx.Load(); p != nil {
		return *p
	}
	return context.Background()
}
