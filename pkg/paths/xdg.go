// Package paths provides XDG-compliant path resolution for keyflow.
//
// Resolution order:
// 1. KEYFLOW_HOME (portable root) → $KEYFLOW_HOME/{config,state,cache,run}
// 2. XDG env vars → $XDG_*_HOME/keyflow
// 3. Platform defaults → ~/.config/keyflow, ~/.local/state/keyflow, etc.
package paths

import (
	"os"
	"path/filepath"
	"time"
)

const appName = "keyflow"

// baseDir resolves one XDG base directory with the KEYFLOW_HOME override.
func baseDir(homeSub, xdgVar string, fallback ...string) string {
	if home := os.Getenv("KEYFLOW_HOME"); home != "" {
		return filepath.Join(home, homeSub)
	}
	if dir := os.Getenv(xdgVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, append(fallback, appName)...)...)
	}
	return ""
}

// ConfigDir returns the keyflow configuration directory.
// Used for keyflow.yml and the groups file.
func ConfigDir() string {
	return baseDir("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the keyflow state directory.
// Used for logs and the pid file.
func StateDir() string {
	return baseDir("state", "XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns the keyflow cache directory.
// Used for the installed-applications catalog.
func CacheDir() string {
	return baseDir("cache", "XDG_CACHE_HOME", ".cache")
}

// RuntimeDir returns the directory for the control socket.
// Uses XDG_RUNTIME_DIR when available, falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv("KEYFLOW_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// LogsDir returns the directory holding per-component daily log files.
func LogsDir() string {
	return filepath.Join(StateDir(), "logs")
}

// LogFilePath returns today's log file for a component.
func LogFilePath(component string) string {
	return filepath.Join(LogsDir(), component+"-"+time.Now().Format("2006-01-02")+".log")
}

// SocketPath returns the path to the keyflow daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "keyflowd.sock")
}

// PidFilePath returns the path to the keyflow daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "keyflowd.pid")
}

// DefaultGroupsFile returns the default location of the groups file.
func DefaultGroupsFile() string {
	return filepath.Join(ConfigDir(), "groups.yml")
}

// EnsureDirs creates all keyflow directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), CacheDir(), RuntimeDir(), LogsDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
