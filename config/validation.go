package config

import (
	"fmt"
	"slices"

	kferrors "github.com/grovetools/keyflow/errors"
)

var naturalTypingValues = []string{"disabled", "slow", "medium", "fast"}

// Validate checks the semantic constraints the schema cannot express.
func (s *Settings) Validate() error {
	e := s.Engine
	for name, v := range map[string]int{
		"engine.sequence_timeout_ms":      e.SequenceTimeoutMS,
		"engine.serial_delay_ms":          e.SerialDelayMS,
		"engine.frontmost_debounce_ms":    e.FrontmostDebounceMS,
		"engine.window_index_debounce_ms": e.WindowIndexDebounceMS,
		"engine.poll_interval_ms":         e.PollIntervalMS,
	} {
		if v < 0 {
			return kferrors.New(kferrors.ErrCodeConfigValidation, fmt.Sprintf("%s cannot be negative", name)).
				WithDetail("value", v)
		}
	}
	if e.SequenceTimeoutMS == 0 {
		return kferrors.New(kferrors.ErrCodeConfigValidation, "engine.sequence_timeout_ms must be positive")
	}
	if !slices.Contains(naturalTypingValues, e.NaturalTyping) {
		return kferrors.New(kferrors.ErrCodeConfigValidation, fmt.Sprintf("invalid natural_typing: %s", e.NaturalTyping)).
			WithDetail("allowed", naturalTypingValues)
	}
	if s.GroupsFile == "" {
		return kferrors.New(kferrors.ErrCodeConfigValidation, "groups_file cannot be empty")
	}
	if s.Daemon.Socket == "" {
		return kferrors.New(kferrors.ErrCodeConfigValidation, "daemon.socket cannot be empty")
	}
	for _, dir := range s.Applications.Directories {
		if dir == "" {
			return kferrors.New(kferrors.ErrCodeConfigValidation, "applications.directories cannot contain an empty path")
		}
	}
	return nil
}
