// Package dispatch runs the command list of a triggered workflow. At most one
// execution is live; starting a new one cancels the previous one.
package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/models"
)

// Runner executes one kind of command.
type Runner interface {
	Run(ctx context.Context, cmd models.Command) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd models.Command) error

func (f RunnerFunc) Run(ctx context.Context, cmd models.Command) error {
	return f(ctx, cmd)
}

// Revealer is implemented by runners that can show a command's target.
type Revealer interface {
	Reveal(ctx context.Context, cmd models.Command) error
}

// Overlay is an exclusive system UI, such as a window switcher, that must be
// dismissed before a run starts.
type Overlay interface {
	DismissIfActive(ctx context.Context)
}

// Notifier posts a transient on-screen confirmation.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Executed is published before a command that opted into notifications runs.
type Executed struct {
	Command models.Command `json:"-"`
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Kind    string         `json:"kind"`
	Time    time.Time      `json:"time"`
}

// Options configures an Engine.
type Options struct {
	// SerialDelay is inserted between commands of a serial run.
	SerialDelay time.Duration
	Overlay     Overlay
	Notifier    Notifier
	// OnExecuted receives notification-enabled commands. It must not block.
	OnExecuted func(Executed)
	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine is the command dispatch engine.
type Engine struct {
	opts   Options
	logger *logrus.Entry

	mu      sync.Mutex
	runners map[models.CommandKind]Runner
	current *Task
	nextID  uint64

	lastMu       sync.RWMutex
	lastKeyboard *models.KeyboardCommand
	lastExecuted *Executed
}

// New creates an Engine without runners.
func New(opts Options) *Engine {
	if opts.SerialDelay == 0 {
		opts.SerialDelay = 50 * time.Millisecond
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Engine{
		opts:    opts,
		logger:  logging.NewLogger("dispatch"),
		runners: make(map[models.CommandKind]Runner),
	}
}

// Register installs the runner for a command kind.
func (e *Engine) Register(kind models.CommandKind, r Runner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runners[kind] = r
}

func (e *Engine) runner(kind models.CommandKind) (Runner, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runners[kind]
	return r, ok
}

// Run starts wf with the pacing its execution mode asks for.
func (e *Engine) Run(ctx context.Context, wf *models.Workflow) *Task {
	if wf.Execution == models.ExecutionConcurrent {
		return e.ConcurrentRun(ctx, wf.Commands)
	}
	return e.SerialRun(ctx, wf.Commands)
}

// SerialRun runs cmds in order with a settle delay between them.
func (e *Engine) SerialRun(ctx context.Context, cmds []models.Command) *Task {
	return e.start(ctx, cmds, true)
}

// ConcurrentRun runs cmds in order without pacing.
func (e *Engine) ConcurrentRun(ctx context.Context, cmds []models.Command) *Task {
	return e.start(ctx, cmds, false)
}

// Cancel cancels the live execution, if any.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.Cancel()
	}
}

// Current returns the live task, or nil.
func (e *Engine) Current() *Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) start(ctx context.Context, cmds []models.Command, serial bool) *Task {
	e.mu.Lock()
	if e.current != nil {
		e.current.Cancel()
	}
	e.nextID++
	task := newTask(ctx, e.nextID)
	e.current = task
	e.mu.Unlock()

	snapshot := make([]models.Command, len(cmds))
	copy(snapshot, cmds)

	go e.execute(task, snapshot, serial)
	return task
}

func (e *Engine) execute(task *Task, cmds []models.Command, serial bool) {
	defer func() {
		e.mu.Lock()
		if e.current == task {
			e.current = nil
		}
		e.mu.Unlock()
		task.finish()
	}()

	if e.opts.Overlay != nil {
		e.opts.Overlay.DismissIfActive(task.ctx)
	}

	ran := 0
	for _, cmd := range cmds {
		meta := cmd.Meta()
		if !meta.Enabled {
			task.record(Result{CommandID: meta.ID, Kind: cmd.Kind(), Skipped: true})
			continue
		}
		if serial && ran > 0 {
			if err := e.opts.Sleep(task.ctx, e.opts.SerialDelay); err != nil {
				task.markCancelled()
				return
			}
		}
		if !task.begin() {
			return
		}
		ran++

		res := Result{CommandID: meta.ID, Kind: cmd.Kind(), Started: time.Now()}
		res.Err = e.runOne(task.ctx, cmd)
		res.Duration = time.Since(res.Started)
		task.record(res)
	}
}

// runOne executes a single command. In-flight commands are detached from the
// task's cancellation so they finish naturally.
func (e *Engine) runOne(ctx context.Context, cmd models.Command) error {
	meta := cmd.Meta()
	fields := logrus.Fields{"command": meta.ID, "kind": string(cmd.Kind())}
	if meta.Name != "" {
		fields["name"] = meta.Name
	}

	if meta.Notification {
		e.announce(ctx, cmd)
	}

	r, ok := e.runner(cmd.Kind())
	if !ok {
		err := kferrors.RunnerFailure(string(cmd.Kind()), fmt.Errorf("no runner registered"))
		e.logger.WithFields(fields).WithError(err).Warn("Command failed")
		return err
	}

	err := r.Run(context.WithoutCancel(ctx), cmd)
	if err != nil {
		var kfErr *kferrors.KeyflowError
		if !stderrors.As(err, &kfErr) {
			err = kferrors.RunnerFailure(string(cmd.Kind()), err)
		}
		e.logger.WithFields(fields).WithError(err).Warn("Command failed")
		return err
	}

	if kb, ok := cmd.(models.KeyboardCommand); ok {
		e.lastMu.Lock()
		e.lastKeyboard = &kb
		e.lastMu.Unlock()
	}
	e.logger.WithFields(fields).Debug("Command finished")
	return nil
}

func (e *Engine) announce(ctx context.Context, cmd models.Command) {
	meta := cmd.Meta()
	ex := Executed{Command: cmd, ID: meta.ID, Name: meta.Name, Kind: string(cmd.Kind()), Time: time.Now()}
	e.lastMu.Lock()
	e.lastExecuted = &ex
	e.lastMu.Unlock()

	if e.opts.OnExecuted != nil {
		e.opts.OnExecuted(ex)
	}
	if e.opts.Notifier != nil {
		title := meta.Name
		if title == "" {
			title = string(cmd.Kind())
		}
		if err := e.opts.Notifier.Notify(context.WithoutCancel(ctx), "keyflow", title); err != nil {
			e.logger.WithError(err).Debug("Notification failed")
		}
	}
}

// LastKeyboard returns the most recent keyboard command that ran successfully.
func (e *Engine) LastKeyboard() (models.KeyboardCommand, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	if e.lastKeyboard == nil {
		return models.KeyboardCommand{}, false
	}
	return *e.lastKeyboard, true
}

// LastExecuted returns the most recent notification-enabled command.
func (e *Engine) LastExecuted() (Executed, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	if e.lastExecuted == nil {
		return Executed{}, false
	}
	return *e.lastExecuted, true
}

// Reveal shows the target of each command without going through a run.
func (e *Engine) Reveal(ctx context.Context, cmds []models.Command) error {
	var errs []error
	for _, cmd := range cmds {
		r, ok := e.runner(cmd.Kind())
		if !ok {
			continue
		}
		rv, ok := r.(Revealer)
		if !ok {
			continue
		}
		if err := rv.Reveal(ctx, cmd); err != nil {
			e.logger.WithError(err).WithField("command", cmd.Meta().ID).Warn("Reveal failed")
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return kferrors.Cancelled()
	case <-timer.C:
		return nil
	}
}
