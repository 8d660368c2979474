package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/keyflow/pkg/models"
)

// Result is the outcome of one command in a run.
type Result struct {
	CommandID string             `json:"command_id"`
	Kind      models.CommandKind `json:"kind"`
	Started   time.Time          `json:"started"`
	Duration  time.Duration      `json:"duration"`
	Err       error              `json:"-"`
	Skipped   bool               `json:"skipped,omitempty"`
}

// Report summarizes a finished run.
type Report struct {
	Results   []Result `json:"results"`
	Cancelled bool     `json:"cancelled"`
}

// Executed reports how many commands actually ran.
func (r Report) Executed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped {
			n++
		}
	}
	return n
}

// Task is the handle of one running execution.
type Task struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	cancelled bool
	report    Report
}

func newTask(parent context.Context, id uint64) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{id: id, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// ID identifies the task within its engine.
func (t *Task) ID() uint64 {
	return t.id
}

// Cancel requests cooperative cancellation. Commands already in flight
// finish; no further command of this run starts once Cancel returns.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.cancel()
}

// Done is closed when the run has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run has finished and returns its report.
func (t *Task) Wait() Report {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.report
}

// begin reports whether the next command may start.
func (t *Task) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled || t.ctx.Err() != nil {
		t.report.Cancelled = true
		return false
	}
	return true
}

func (t *Task) record(r Result) {
	t.mu.Lock()
	t.report.Results = append(t.report.Results, r)
	t.mu.Unlock()
}

func (t *Task) markCancelled() {
	t.mu.Lock()
	t.report.Cancelled = true
	t.mu.Unlock()
}

func (t *Task) finish() {
	t.cancel()
	close(t.done)
}
