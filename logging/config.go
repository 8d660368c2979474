package logging

// Config is the `logging` section of keyflow.yml.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	// KEYFLOW_LOG_LEVEL overrides it.
	Level string `yaml:"level" toml:"level" json:"level,omitempty" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`

	// ReportCaller adds file, line and function to every entry.
	// KEYFLOW_LOG_CALLER=true enables it too.
	ReportCaller bool `yaml:"report_caller" toml:"report_caller" json:"report_caller,omitempty"`

	File   FileSinkConfig `yaml:"file" toml:"file" json:"file,omitempty"`
	Format FormatConfig   `yaml:"format" toml:"format" json:"format,omitempty"`
}

// FileSinkConfig configures the file sink. When disabled, entries still go to
// the default daily file under the state directory.
type FileSinkConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled,omitempty"`
	// Path is the full path to the log file. `~` is expanded.
	Path string `yaml:"path" toml:"path" json:"path,omitempty"`
	// Disabled turns file logging off entirely.
	Disabled bool `yaml:"disabled" toml:"disabled" json:"disabled,omitempty"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset is "default" (rich text), "simple" (minimal text) or "json".
	Preset           string `yaml:"preset" toml:"preset" json:"preset,omitempty" jsonschema:"enum=default,enum=simple,enum=json"`
	DisableTimestamp bool   `yaml:"disable_timestamp" toml:"disable_timestamp" json:"disable_timestamp,omitempty"`
	DisableComponent bool   `yaml:"disable_component" toml:"disable_component" json:"disable_component,omitempty"`
	// StructuredToStderr is "auto" (default), "always" or "never".
	StructuredToStderr string `yaml:"structured_to_stderr" toml:"structured_to_stderr" json:"structured_to_stderr,omitempty" jsonschema:"enum=auto,enum=always,enum=never"`
}
