package config

import (
	"time"

	"github.com/grovetools/keyflow/logging"
)

// Settings is the contents of keyflow.yml (or keyflow.toml).
type Settings struct {
	Engine       EngineConfig       `yaml:"engine" toml:"engine" json:"engine" jsonschema:"description=Matching and dispatch timing"`
	GroupsFile   string             `yaml:"groups_file,omitempty" toml:"groups_file,omitempty" json:"groups_file,omitempty" jsonschema:"description=Path to the groups file (default: <config>/keyflow/groups.yml)"`
	Applications ApplicationsConfig `yaml:"applications,omitempty" toml:"applications,omitempty" json:"applications" jsonschema:"description=Installed-application scanning"`
	Watch        WatchConfig        `yaml:"watch,omitempty" toml:"watch,omitempty" json:"watch" jsonschema:"description=Configuration file watching"`
	Logging      logging.Config     `yaml:"logging,omitempty" toml:"logging,omitempty" json:"logging" jsonschema:"description=Logging configuration"`
	Daemon       DaemonConfig       `yaml:"daemon,omitempty" toml:"daemon,omitempty" json:"daemon" jsonschema:"description=Daemon control socket"`
}

// EngineConfig tunes the event tap and the dispatch engine.
type EngineConfig struct {
	SequenceTimeoutMS     int    `yaml:"sequence_timeout_ms,omitempty" toml:"sequence_timeout_ms,omitempty" json:"sequence_timeout_ms,omitempty" jsonschema:"minimum=0,maximum=10000,description=Longest pause between the keys of a sequence (default: 1000)"`
	SerialDelayMS         int    `yaml:"serial_delay_ms,omitempty" toml:"serial_delay_ms,omitempty" json:"serial_delay_ms,omitempty" jsonschema:"minimum=0,maximum=5000,description=Delay between the commands of a serial workflow (default: 50)"`
	FrontmostDebounceMS   int    `yaml:"frontmost_debounce_ms,omitempty" toml:"frontmost_debounce_ms,omitempty" json:"frontmost_debounce_ms,omitempty" jsonschema:"minimum=0,maximum=5000,description=Quiet period before a frontmost change rebuilds the index (default: 250)"`
	WindowIndexDebounceMS int    `yaml:"window_index_debounce_ms,omitempty" toml:"window_index_debounce_ms,omitempty" json:"window_index_debounce_ms,omitempty" jsonschema:"minimum=0,maximum=5000,description=Quiet period before the window index is refreshed (default: 250)"`
	NaturalTyping         string `yaml:"natural_typing,omitempty" toml:"natural_typing,omitempty" json:"natural_typing,omitempty" jsonschema:"enum=disabled,enum=slow,enum=medium,enum=fast,description=Random per-character delay for type commands (default: fast)"`
	StartDisabled         bool   `yaml:"start_disabled,omitempty" toml:"start_disabled,omitempty" json:"start_disabled,omitempty" jsonschema:"description=Start with matching disabled"`
	PollIntervalMS        int    `yaml:"poll_interval_ms,omitempty" toml:"poll_interval_ms,omitempty" json:"poll_interval_ms,omitempty" jsonschema:"minimum=0,maximum=60000,description=How often running applications are polled (default: 500)"`
}

// SequenceTimeout is the inter-key timeout.
func (e EngineConfig) SequenceTimeout() time.Duration {
	return time.Duration(e.SequenceTimeoutMS) * time.Millisecond
}

// SerialDelay is the pause between serial commands.
func (e EngineConfig) SerialDelay() time.Duration {
	return time.Duration(e.SerialDelayMS) * time.Millisecond
}

// FrontmostDebounce is the coalescing delay for frontmost changes.
func (e EngineConfig) FrontmostDebounce() time.Duration {
	return time.Duration(e.FrontmostDebounceMS) * time.Millisecond
}

// WindowIndexDebounce is the coalescing delay for window reindexing.
func (e EngineConfig) WindowIndexDebounce() time.Duration {
	return time.Duration(e.WindowIndexDebounceMS) * time.Millisecond
}

// PollInterval is the application polling period.
func (e EngineConfig) PollInterval() time.Duration {
	return time.Duration(e.PollIntervalMS) * time.Millisecond
}

// ApplicationsConfig lists the directories scanned for installed applications.
type ApplicationsConfig struct {
	Directories []string `yaml:"directories,omitempty" toml:"directories,omitempty" json:"directories,omitempty" jsonschema:"description=Directories containing .app bundles"`
}

// WatchConfig controls the configuration watcher.
type WatchConfig struct {
	Disabled bool     `yaml:"disabled,omitempty" toml:"disabled,omitempty" json:"disabled,omitempty" jsonschema:"description=Do not reload on file changes"`
	Ignore   []string `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty" jsonschema:"description=File name patterns that never trigger a reload"`
}

// DaemonConfig configures the control socket.
type DaemonConfig struct {
	Socket string `yaml:"socket,omitempty" toml:"socket,omitempty" json:"socket,omitempty" jsonschema:"description=Unix socket path (default: <state>/keyflow/keyflowd.sock)"`
}
