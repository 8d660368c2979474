package config

import (
	"path/filepath"
)

// overrideFiles lists the local override files for a settings file.
func overrideFiles(path string) []string {
	dir := filepath.Dir(path)
	return []string{
		filepath.Join(dir, "keyflow.override.yml"),
		filepath.Join(dir, "keyflow.override.yaml"),
		filepath.Join(dir, "keyflow.override.toml"),
	}
}

// mergeSettings lays override over base. Zero values in override keep the
// base value; lists replace rather than append.
func mergeSettings(base, override *Settings) *Settings {
	result := *base

	result.Engine = mergeEngine(result.Engine, override.Engine)
	if override.GroupsFile != "" {
		result.GroupsFile = override.GroupsFile
	}
	if len(override.Applications.Directories) > 0 {
		result.Applications.Directories = override.Applications.Directories
	}
	if override.Watch.Disabled {
		result.Watch.Disabled = true
	}
	if len(override.Watch.Ignore) > 0 {
		result.Watch.Ignore = override.Watch.Ignore
	}
	if override.Daemon.Socket != "" {
		result.Daemon.Socket = override.Daemon.Socket
	}

	l, o := &result.Logging, override.Logging
	if o.Level != "" {
		l.Level = o.Level
	}
	if o.ReportCaller {
		l.ReportCaller = true
	}
	if o.File.Path != "" {
		l.File.Path = o.File.Path
	}
	if o.File.Enabled {
		l.File.Enabled = true
	}
	if o.File.Disabled {
		l.File.Disabled = true
	}
	if o.Format.Preset != "" {
		l.Format.Preset = o.Format.Preset
	}
	if o.Format.StructuredToStderr != "" {
		l.Format.StructuredToStderr = o.Format.StructuredToStderr
	}
	l.Format.DisableTimestamp = l.Format.DisableTimestamp || o.Format.DisableTimestamp
	l.Format.DisableComponent = l.Format.DisableComponent || o.Format.DisableComponent

	return &result
}

func mergeEngine(base, override EngineConfig) EngineConfig {
	result := base
	if override.SequenceTimeoutMS != 0 {
		result.SequenceTimeoutMS = override.SequenceTimeoutMS
	}
	if override.SerialDelayMS != 0 {
		result.SerialDelayMS = override.SerialDelayMS
	}
	if override.FrontmostDebounceMS != 0 {
		result.FrontmostDebounceMS = override.FrontmostDebounceMS
	}
	if override.WindowIndexDebounceMS != 0 {
		result.WindowIndexDebounceMS = override.WindowIndexDebounceMS
	}
	if override.PollIntervalMS != 0 {
		result.PollIntervalMS = override.PollIntervalMS
	}
	if override.NaturalTyping != "" {
		result.NaturalTyping = override.NaturalTyping
	}
	if override.StartDisabled {
		result.StartDisabled = true
	}
	return result
}
