package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *KeyflowError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *KeyflowError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// UnresolvedKey is returned when a logical key has no raw code under the active layout.
func UnresolvedKey(key string) *KeyflowError {
	return New(ErrCodeUnresolvedKey, fmt.Sprintf("no key code for '%s' in the current layout", key)).
		WithDetail("key", key)
}

// MissingCapability is returned when an OS facility (event tap, accessibility) is unavailable.
func MissingCapability(capability string) *KeyflowError {
	return New(ErrCodeMissingCapability, fmt.Sprintf("missing capability: %s", capability)).
		WithDetail("capability", capability)
}

// ApplicationMissing creates an error for a bundle identifier that is not installed or not running.
func ApplicationMissing(bundleIdentifier string) *KeyflowError {
	return New(ErrCodeApplicationMissing, fmt.Sprintf("application '%s' not found", bundleIdentifier)).
		WithDetail("bundleIdentifier", bundleIdentifier)
}

// WindowNotFound creates an error for window operations without a target window.
func WindowNotFound(reason string) *KeyflowError {
	return New(ErrCodeWindowNotFound, fmt.Sprintf("window not found: %s", reason))
}

// RunnerFailure wraps the failure of a sub-runner for the given command kind.
func RunnerFailure(kind string, err error) *KeyflowError {
	return Wrap(err, ErrCodeRunnerFailure, fmt.Sprintf("%s runner failed", kind)).
		WithDetail("kind", kind)
}

// Cancelled marks a run that was superseded before it finished.
func Cancelled() *KeyflowError {
	return New(ErrCodeCancelled, "run cancelled")
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *KeyflowError {
	kfErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		kfErr = kfErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return kfErr
}
