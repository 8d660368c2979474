// Package daemon is the client side of the keyflow control socket. When the
// daemon is not running, read-only queries fall back to the files on disk.
package daemon

import (
	"context"

	"github.com/grovetools/keyflow/pkg/dispatch"
)

// Client talks to the keyflow daemon. RemoteClient uses the control socket;
// LocalClient answers what it can from the configuration files.
type Client interface {
	// Status returns the daemon state.
	Status(ctx context.Context) (*Status, error)

	// SetState enables, disables or starts/stops recording.
	SetState(ctx context.Context, req StateRequest) (*StateChange, error)

	// Workflows lists the configured workflows.
	Workflows(ctx context.Context) ([]WorkflowInfo, error)

	// Run starts a workflow by id or name regardless of its trigger.
	Run(ctx context.Context, workflow string) (*RunResponse, error)

	// Reveal shows the targets of a workflow's commands.
	Reveal(ctx context.Context, workflow string) error

	// Reload re-reads the groups file.
	Reload(ctx context.Context) error

	// LastCommand returns the most recent notification-enabled command.
	LastCommand(ctx context.Context) (*dispatch.Executed, error)

	// Shortcuts lists the saved Shortcuts-app shortcuts.
	Shortcuts(ctx context.Context) ([]string, error)

	// StreamEvents subscribes to daemon events until ctx is canceled.
	StreamEvents(ctx context.Context) (<-chan Event, error)

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}
