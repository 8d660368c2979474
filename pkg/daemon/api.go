package daemon

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/grovetools/keyflow/pkg/dispatch"
	"github.com/grovetools/keyflow/pkg/models"
)

// Status is the daemon state returned by GET /api/state.
type Status struct {
	EngineState  models.EngineState `json:"engine_state"`
	Frontmost    string             `json:"frontmost"`
	Running      []string           `json:"running"`
	Trusted      bool               `json:"trusted"`
	TapInstalled bool               `json:"tap_installed"`
	Index        struct {
		Groups    int    `json:"groups"`
		Workflows int    `json:"workflows"`
		Entries   int    `json:"entries"`
		Frontmost string `json:"frontmost"`
	} `json:"index"`
	LastCommand *dispatch.Executed `json:"last_command,omitempty"`
	ConfigError string             `json:"config_error,omitempty"`
	LoadedAt    time.Time          `json:"loaded_at"`
	StartedAt   time.Time          `json:"started_at"`
}

// StateRequest is the body of POST /api/state. Exactly one of the fields is
// set: State moves to an explicit state, Signal applies a transition.
type StateRequest struct {
	State  models.EngineState `json:"state,omitempty"`
	Signal string             `json:"signal,omitempty"`
}

// StateChange is the response of POST /api/state.
type StateChange struct {
	From    models.EngineState `json:"from"`
	To      models.EngineState `json:"to"`
	Changed bool               `json:"changed"`
}

// WorkflowInfo summarizes one configured workflow.
type WorkflowInfo struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Group     string           `json:"group"`
	Enabled   bool             `json:"enabled"`
	Execution models.Execution `json:"execution"`
	Trigger   string           `json:"trigger,omitempty"`
	Commands  int              `json:"commands"`
}

// RunRequest is the body of POST /api/run and POST /api/reveal.
type RunRequest struct {
	Workflow string `json:"workflow"`
}

// RunResponse is the response of POST /api/run.
type RunResponse struct {
	Workflow string `json:"workflow"`
	Name     string `json:"name"`
	Task     uint64 `json:"task"`
}

// Event is one message on /api/stream and /api/recording.
type Event struct {
	Type   string          `json:"type"`
	Source string          `json:"source,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Event types.
const (
	EventEngineState  = "engine_state"
	EventRecorded     = "recorded"
	EventExecuted     = "executed"
	EventQuickRun     = "quick_run"
	EventConfigReload = "config_reload"
	EventApplications = "applications"
	EventIndex        = "index"
	EventTap          = "tap"
	EventPermission   = "permission"
)

// Summarize lists every workflow of groups in configuration order.
func Summarize(groups []models.Group) []WorkflowInfo {
	var out []WorkflowInfo
	for _, g := range groups {
		for _, w := range g.Workflows {
			out = append(out, WorkflowInfo{
				ID:        w.ID,
				Name:      w.Name,
				Group:     g.Name,
				Enabled:   w.Enabled,
				Execution: w.Execution,
				Trigger:   describeTrigger(w.Trigger),
				Commands:  len(w.Commands),
			})
		}
	}
	return out
}

func describeTrigger(t *models.Trigger) string {
	if t == nil {
		return ""
	}
	var parts []string
	if len(t.Keyboard) > 0 {
		keys := make([]string, len(t.Keyboard))
		for i, k := range t.Keyboard {
			keys[i] = k.String()
		}
		parts = append(parts, strings.Join(keys, ", "))
	}
	for _, a := range t.Application {
		contexts := make([]string, len(a.Contexts))
		for i, c := range a.Contexts {
			contexts[i] = string(c)
		}
		parts = append(parts, a.BundleIdentifier+" "+strings.Join(contexts, "/"))
	}
	return strings.Join(parts, "; ")
}
