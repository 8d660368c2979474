package models

// EngineState gates whether the event tap matches, forwards or records.
type EngineState string

const (
	StateEnabled   EngineState = "enabled"
	StateDisabled  EngineState = "disabled"
	StateRecording EngineState = "recording"
)

// Valid reports whether s is one of the known states.
func (s EngineState) Valid() bool {
	switch s {
	case StateEnabled, StateDisabled, StateRecording:
		return true
	}
	return false
}
