package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/keyflow/config"
	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/internal/daemon/store"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

type fakeTap struct {
	allowed atomic.Bool
	starts  atomic.Int32

	mu      sync.Mutex
	handler func(keytap.Event) keytap.Verdict
}

func (t *fakeTap) Start(handler func(keytap.Event) keytap.Verdict) error {
	t.starts.Add(1)
	if !t.allowed.Load() {
		return kferrors.MissingCapability("accessibility")
	}
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
	return nil
}

func (t *fakeTap) Stop() {}

func (t *fakeTap) send(ev keytap.Event) keytap.Verdict {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	return h(ev)
}

type fakePoster struct {
	mu    sync.Mutex
	codes []uint16
}

func (p *fakePoster) PostKey(code uint16, _ models.ModifierFlags, down bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if down {
		p.codes = append(p.codes, code)
	}
	return nil
}

func (p *fakePoster) PostText(string) error { return nil }

func (p *fakePoster) downs() []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint16(nil), p.codes...)
}

// fakePlatform only implements what these tests reach.
type fakePlatform struct {
	Platform
}

func (fakePlatform) Notify(context.Context, string, string) error { return nil }

// feed forwards whatever the test pushes.
type feed chan store.Update

func (f feed) Name() string { return "feed" }

func (f feed) Run(ctx context.Context, _ *store.Store, updates chan<- store.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-f:
			updates <- u
		}
	}
}

func shortcut(t *testing.T, s string) models.KeyShortcut {
	t.Helper()
	k, err := models.ParseKeyShortcut(s)
	require.NoError(t, err)
	return k
}

func testGroups(t *testing.T) []models.Group {
	return []models.Group{{
		ID:   "g1",
		Name: "Global",
		Workflows: []models.Workflow{
			{
				ID: "paste", Name: "Paste", Enabled: true, Execution: models.ExecutionSerial,
				Trigger: &models.Trigger{Keyboard: []models.KeyShortcut{shortcut(t, "cmd+shift+d")}},
				Commands: []models.Command{models.KeyboardCommand{
					CommandMeta: models.CommandMeta{ID: "c1", Enabled: true},
					Shortcuts:   []models.KeyShortcut{shortcut(t, "a")},
				}},
			},
			{
				ID: "on-launch", Name: "On launch", Enabled: true, Execution: models.ExecutionSerial,
				Trigger: &models.Trigger{Application: []models.ApplicationTrigger{{
					BundleIdentifier: "com.example.Editor",
					Contexts:         []models.ApplicationContext{models.ContextLaunched},
				}}},
				Commands: []models.Command{models.BuiltInCommand{
					CommandMeta: models.CommandMeta{ID: "c2", Enabled: true},
					Action:      models.BuiltInDisable,
				}},
			},
			{ID: "off", Name: "Off", Enabled: false},
		},
	}}
}

type harness struct {
	engine *Engine
	tap    *fakeTap
	poster *fakePoster
	feed   feed
	cancel context.CancelFunc
	done   chan struct{}
}

func start(t *testing.T, load func(string) ([]models.Group, error)) *harness {
	t.Helper()
	settings := config.Default()
	settings.Engine.FrontmostDebounceMS = 1
	settings.Engine.SerialDelayMS = 1

	h := &harness{tap: &fakeTap{}, poster: &fakePoster{}, feed: make(feed, 10), done: make(chan struct{})}
	h.engine = New(store.New(), Options{
		Settings:   settings,
		Platform:   fakePlatform{},
		Tap:        h.tap,
		Poster:     h.poster,
		LoadGroups: load,
	})
	h.engine.Register(h.feed)
	require.NoError(t, h.engine.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		h.engine.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func staticGroups(t *testing.T) func(string) ([]models.Group, error) {
	groups := testGroups(t)
	return func(string) ([]models.Group, error) { return groups, nil }
}

func TestTapInstalledOncePermissionIsGranted(t *testing.T) {
	h := start(t, staticGroups(t))

	assert.Eventually(t, func() bool { return h.tap.starts.Load() >= 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, h.engine.Store().Get().TapInstalled)

	h.tap.allowed.Store(true)
	h.feed <- store.Update{Type: store.UpdatePermission, Payload: true}
	assert.Eventually(t, func() bool { return h.engine.Store().Get().TapInstalled }, time.Second, 5*time.Millisecond)

	starts := h.tap.starts.Load()
	h.feed <- store.Update{Type: store.UpdatePermission, Payload: true}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, starts, h.tap.starts.Load())
}

func TestKeyTriggerRunsWorkflow(t *testing.T) {
	h := start(t, staticGroups(t))
	h.tap.allowed.Store(true)
	h.feed <- store.Update{Type: store.UpdatePermission, Payload: true}
	require.Eventually(t, func() bool { return h.engine.Store().Get().TapInstalled }, time.Second, 5*time.Millisecond)

	flags := models.FlagsFor([]models.Modifier{models.ModifierCommand, models.ModifierShift})
	// D is hardware code 2 and A is 0 on the ANSI layout.
	verdict := h.tap.send(keytap.Event{Type: keytap.KeyDown, Code: 2, Flags: flags})
	assert.Equal(t, keytap.Consume, verdict)
	assert.Equal(t, keytap.Consume, h.tap.send(keytap.Event{Type: keytap.KeyUp, Code: 2, Flags: flags}))

	assert.Eventually(t, func() bool {
		downs := h.poster.downs()
		return len(downs) == 1 && downs[0] == 0
	}, time.Second, 5*time.Millisecond)

	// Synthetic events pass straight through.
	assert.Equal(t, keytap.Forward, h.tap.send(keytap.Event{Type: keytap.KeyDown, Code: 2, Flags: flags, Synthetic: true}))
}

func TestNamedKeyTriggerRunsWorkflow(t *testing.T) {
	groups := []models.Group{{ID: "g1", Name: "Global", Workflows: []models.Workflow{{
		ID: "space", Name: "Space", Enabled: true, Execution: models.ExecutionSerial,
		Trigger: &models.Trigger{Keyboard: []models.KeyShortcut{shortcut(t, "ctrl+space")}},
		Commands: []models.Command{models.KeyboardCommand{
			CommandMeta: models.CommandMeta{ID: "c1", Enabled: true},
			Shortcuts:   []models.KeyShortcut{shortcut(t, "enter")},
		}},
	}}}}
	h := start(t, func(string) ([]models.Group, error) { return groups, nil })
	h.tap.allowed.Store(true)
	h.feed <- store.Update{Type: store.UpdatePermission, Payload: true}
	require.Eventually(t, func() bool { return h.engine.Store().Get().TapInstalled }, time.Second, 5*time.Millisecond)

	// Space is hardware code 49 and Return is 36.
	flags := models.FlagsFor([]models.Modifier{models.ModifierControl})
	assert.Equal(t, keytap.Consume, h.tap.send(keytap.Event{Type: keytap.KeyDown, Code: 49, Flags: flags}))
	assert.Eventually(t, func() bool {
		downs := h.poster.downs()
		return len(downs) == 1 && downs[0] == 36
	}, time.Second, 5*time.Millisecond)
}

func TestLaunchTriggerFiresForNewApplicationsOnly(t *testing.T) {
	h := start(t, staticGroups(t))

	// The editor is already running at startup and must not fire.
	h.feed <- store.Update{Type: store.UpdateApplications, Payload: platform.Snapshot{
		Frontmost:    "com.apple.finder",
		Applications: []platform.App{{BundleIdentifier: "com.apple.finder"}, {BundleIdentifier: "com.example.Editor"}},
	}}
	assert.Eventually(t, func() bool { return h.engine.Store().Get().Frontmost == "com.apple.finder" }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, models.StateEnabled, h.engine.State().Current())

	// Quit and relaunch.
	h.feed <- store.Update{Type: store.UpdateApplications, Payload: platform.Snapshot{
		Frontmost:    "com.apple.finder",
		Applications: []platform.App{{BundleIdentifier: "com.apple.finder"}},
	}}
	h.feed <- store.Update{Type: store.UpdateApplications, Payload: platform.Snapshot{
		Frontmost:    "com.example.Editor",
		Applications: []platform.App{{BundleIdentifier: "com.apple.finder"}, {BundleIdentifier: "com.example.Editor"}},
	}}
	assert.Eventually(t, func() bool { return h.engine.State().Current() == models.StateDisabled }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return h.engine.Store().Get().EngineState == models.StateDisabled }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return h.engine.Store().Get().Index.Frontmost == "com.example.Editor" }, time.Second, 5*time.Millisecond)
}

func TestRunWorkflow(t *testing.T) {
	h := start(t, staticGroups(t))

	_, _, err := h.engine.RunWorkflow("missing")
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeInvalidInput))

	_, _, err = h.engine.RunWorkflow("Off")
	assert.Error(t, err)

	wf, task, err := h.engine.RunWorkflow("Paste")
	require.NoError(t, err)
	assert.Equal(t, "paste", wf.ID)
	report := task.Wait()
	assert.Equal(t, 1, report.Executed())
	assert.Equal(t, []uint16{0}, h.poster.downs())
}

func TestReloadKeepsPreviousGroupsOnError(t *testing.T) {
	var fail atomic.Bool
	groups := testGroups(t)
	h := start(t, func(string) ([]models.Group, error) {
		if fail.Load() {
			return nil, errors.New("broken yaml")
		}
		return groups, nil
	})
	assert.Equal(t, 1, h.engine.Index().Len())

	fail.Store(true)
	assert.Error(t, h.engine.Reload())
	assert.Len(t, h.engine.Groups(), 1)
	assert.Equal(t, "broken yaml", h.engine.Store().Get().ConfigError)

	fail.Store(false)
	require.NoError(t, h.engine.Reload())
	assert.Empty(t, h.engine.Store().Get().ConfigError)
}
