package config

import (
	"github.com/grovetools/keyflow/pkg/paths"
)

const (
	DefaultSequenceTimeoutMS     = 1000
	DefaultSerialDelayMS         = 50
	DefaultFrontmostDebounceMS   = 250
	DefaultWindowIndexDebounceMS = 250
	DefaultPollIntervalMS        = 500
	DefaultNaturalTyping         = "fast"
)

// DefaultIgnore are editor artifacts that never trigger a reload.
var DefaultIgnore = []string{"*.swp", "*.swx", "*~", ".#*", "#*#", "4913", ".DS_Store"}

// SetDefaults fills every unset field.
func (s *Settings) SetDefaults() {
	e := &s.Engine
	if e.SequenceTimeoutMS == 0 {
		e.SequenceTimeoutMS = DefaultSequenceTimeoutMS
	}
	if e.SerialDelayMS == 0 {
		e.SerialDelayMS = DefaultSerialDelayMS
	}
	if e.FrontmostDebounceMS == 0 {
		e.FrontmostDebounceMS = DefaultFrontmostDebounceMS
	}
	if e.WindowIndexDebounceMS == 0 {
		e.WindowIndexDebounceMS = DefaultWindowIndexDebounceMS
	}
	if e.PollIntervalMS == 0 {
		e.PollIntervalMS = DefaultPollIntervalMS
	}
	if e.NaturalTyping == "" {
		e.NaturalTyping = DefaultNaturalTyping
	}
	if s.GroupsFile == "" {
		s.GroupsFile = paths.DefaultGroupsFile()
	} else {
		s.GroupsFile = expandHome(s.GroupsFile)
	}
	if len(s.Watch.Ignore) == 0 {
		s.Watch.Ignore = append([]string(nil), DefaultIgnore...)
	}
	if s.Daemon.Socket == "" {
		s.Daemon.Socket = paths.SocketPath()
	} else {
		s.Daemon.Socket = expandHome(s.Daemon.Socket)
	}
	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
}

// Default returns settings with every default applied.
func Default() *Settings {
	s := &Settings{}
	s.SetDefaults()
	return s
}
