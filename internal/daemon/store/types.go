// Package store provides the in-memory state store for the keyflow daemon.
package store

import (
	"time"

	"github.com/grovetools/keyflow/pkg/dispatch"
	"github.com/grovetools/keyflow/pkg/models"
)

// State is the daemon's world view as served by the control API.
type State struct {
	EngineState  models.EngineState `json:"engine_state"`
	Frontmost    string             `json:"frontmost"`
	Running      []string           `json:"running"`
	Trusted      bool               `json:"trusted"`
	TapInstalled bool               `json:"tap_installed"`
	Index        IndexInfo          `json:"index"`
	LastCommand  *dispatch.Executed `json:"last_command,omitempty"`
	ConfigError  string             `json:"config_error,omitempty"`
	LoadedAt     time.Time          `json:"loaded_at"`
	StartedAt    time.Time          `json:"started_at"`
}

// IndexInfo summarizes the current shortcut index.
type IndexInfo struct {
	Groups    int    `json:"groups"`
	Workflows int    `json:"workflows"`
	Entries   int    `json:"entries"`
	Frontmost string `json:"frontmost"`
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateApplications UpdateType = "applications"
	UpdatePermission   UpdateType = "permission"
	UpdateTap          UpdateType = "tap"
	UpdateEngineState  UpdateType = "engine_state"
	UpdateIndex        UpdateType = "index"
	UpdateExecuted     UpdateType = "executed"
	UpdateRecorded     UpdateType = "recorded"
	UpdateQuickRun     UpdateType = "quick_run"
	UpdateConfigReload UpdateType = "config_reload"
)

// Update represents a change to the state.
type Update struct {
	Type    UpdateType
	Source  string // Which component sent this update (e.g., "applications", "permission", "engine")
	Payload interface{}
}

// ConfigReload is the payload of an UpdateConfigReload.
type ConfigReload struct {
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
}
