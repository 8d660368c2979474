package daemon

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/config"
	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/dispatch"
)

// LocalClient implements Client from the configuration files. It is used
// when the daemon is not running: workflow listing works, everything that
// needs the event tap or a live engine returns DAEMON_NOT_RUNNING.
type LocalClient struct {
	logger       *logrus.Logger
	settingsPath string
}

// NewLocalClient creates a LocalClient. An empty settingsPath uses the
// default configuration lookup.
func NewLocalClient(settingsPath string) *LocalClient {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return &LocalClient{logger: logger, settingsPath: settingsPath}
}

func (c *LocalClient) settings() (*config.Settings, error) {
	if c.settingsPath != "" {
		return config.LoadWithLogger(c.settingsPath, c.logger)
	}
	return config.LoadDefault()
}

func notRunning(op string) error {
	return kferrors.New(kferrors.ErrCodeDaemonNotRunning, op+" needs the daemon; start it with 'keyflow start'")
}

// Status returns DAEMON_NOT_RUNNING.
func (c *LocalClient) Status(ctx context.Context) (*Status, error) {
	return nil, notRunning("status")
}

// SetState returns DAEMON_NOT_RUNNING.
func (c *LocalClient) SetState(ctx context.Context, req StateRequest) (*StateChange, error) {
	return nil, notRunning("changing state")
}

// Workflows reads the groups file directly.
func (c *LocalClient) Workflows(ctx context.Context) ([]WorkflowInfo, error) {
	settings, err := c.settings()
	if err != nil {
		return nil, err
	}
	groups, err := config.LoadGroups(settings.GroupsFile)
	if err != nil {
		return nil, err
	}
	return Summarize(groups), nil
}

// Run returns DAEMON_NOT_RUNNING.
func (c *LocalClient) Run(ctx context.Context, workflow string) (*RunResponse, error) {
	return nil, notRunning("running a workflow")
}

// Reveal returns DAEMON_NOT_RUNNING.
func (c *LocalClient) Reveal(ctx context.Context, workflow string) error {
	return notRunning("reveal")
}

// Reload validates the files on disk since there is no daemon cache to refresh.
func (c *LocalClient) Reload(ctx context.Context) error {
	settings, err := c.settings()
	if err != nil {
		return err
	}
	_, err = config.LoadGroups(settings.GroupsFile)
	return err
}

// LastCommand returns DAEMON_NOT_RUNNING.
func (c *LocalClient) LastCommand(ctx context.Context) (*dispatch.Executed, error) {
	return nil, notRunning("last command")
}

// Shortcuts returns DAEMON_NOT_RUNNING.
func (c *LocalClient) Shortcuts(ctx context.Context) ([]string, error) {
	return nil, notRunning("listing shortcuts")
}

// StreamEvents returns DAEMON_NOT_RUNNING since streaming is only available via daemon.
func (c *LocalClient) StreamEvents(ctx context.Context) (<-chan Event, error) {
	return nil, notRunning("streaming")
}

// IsRunning returns false since this is the local fallback client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op for LocalClient.
func (c *LocalClient) Close() error {
	return nil
}

// Ensure LocalClient implements Client interface.
var _ Client = (*LocalClient)(nil)
