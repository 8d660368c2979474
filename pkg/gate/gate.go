// Package gate decides whether a matched workflow may run.
package gate

import "github.com/grovetools/keyflow/pkg/models"

// Reason explains a gate decision.
type Reason string

const (
	Allowed          Reason = "allowed"
	DeniedDisabled   Reason = "engine disabled"
	DeniedRecording  Reason = "engine recording"
	DeniedWorkflow   Reason = "workflow disabled"
	DeniedNoWorkflow Reason = "no workflow"
)

// Decide returns whether wf may run in state, and why. Group scope is not
// re-checked here; it was applied when the index was built.
func Decide(wf *models.Workflow, state models.EngineState) (bool, Reason) {
	if wf == nil {
		return false, DeniedNoWorkflow
	}
	if !wf.Enabled {
		return false, DeniedWorkflow
	}
	switch state {
	case models.StateRecording:
		return false, DeniedRecording
	case models.StateDisabled:
		if !wf.IsControl() {
			return false, DeniedDisabled
		}
	}
	return true, Allowed
}

// Eligible reports whether wf from group may run in state.
func Eligible(wf *models.Workflow, group *models.Group, state models.EngineState) bool {
	ok, _ := Decide(wf, state)
	return ok
}
