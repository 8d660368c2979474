// Package platform talks to the macOS desktop: applications, windows,
// scripting and notifications. Everything goes through command.Executor so
// the runners can be tested with a fake.
package platform

import "context"

// App is a running application.
type App struct {
	BundleIdentifier string `json:"bundle_identifier"`
	Name             string `json:"name"`
	Path             string `json:"path,omitempty"`
	PID              int    `json:"pid"`
	Hidden           bool   `json:"hidden"`
	Active           bool   `json:"active"`
}

// Snapshot is the set of running applications at one instant.
type Snapshot struct {
	Frontmost    string `json:"frontmost"`
	Applications []App  `json:"applications"`
}

// Running reports whether bundleID is in the snapshot.
func (s Snapshot) Running(bundleID string) bool {
	_, ok := s.Find(bundleID)
	return ok
}

// Find returns the running application with bundleID.
func (s Snapshot) Find(bundleID string) (App, bool) {
	for _, a := range s.Applications {
		if a.BundleIdentifier == bundleID {
			return a, true
		}
	}
	return App{}, false
}

// BundleIdentifiers lists the running applications.
func (s Snapshot) BundleIdentifiers() []string {
	out := make([]string, 0, len(s.Applications))
	for _, a := range s.Applications {
		if a.BundleIdentifier != "" {
			out = append(out, a.BundleIdentifier)
		}
	}
	return out
}

// LaunchOptions alters how an application is opened.
type LaunchOptions struct {
	Background bool
	Hidden     bool
}

// Workspace controls applications.
type Workspace interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Launch(ctx context.Context, bundleID string, opts LaunchOptions) error
	Activate(ctx context.Context, bundleID string) error
	Hide(ctx context.Context, bundleID string) error
	Unhide(ctx context.Context, bundleID string) error
	Terminate(ctx context.Context, bundleID string) error
	// Open opens a path or URL, optionally with a specific application.
	Open(ctx context.Context, target, bundleID string) error
	// Reveal shows a path in the file browser.
	Reveal(ctx context.Context, path string) error
	OpenApplication(ctx context.Context, name string, args ...string) error
}

// Rect is a frame in global screen coordinates with a top-left origin.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX is the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY is the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the center point.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.MaxX() && y >= r.Y && y < r.MaxY()
}

// Window is an on-screen window as reported by the window server.
type Window struct {
	ID       int    `json:"id"`
	Owner    string `json:"owner"`
	OwnerPID int    `json:"pid"`
	Bundle   string `json:"bundle,omitempty"`
	Title    string `json:"title"`
	Layer    int    `json:"layer"`
	OnScreen bool   `json:"onscreen"`
	Bounds   Rect   `json:"bounds"`
}

// Display is a screen. Visible excludes the menu bar and the Dock.
type Display struct {
	ID      int  `json:"id"`
	Frame   Rect `json:"frame"`
	Visible Rect `json:"visible"`
}

// WindowServer lists and manipulates windows.
type WindowServer interface {
	Windows(ctx context.Context, onScreenOnly bool) ([]Window, error)
	FocusedWindow(ctx context.Context) (Window, error)
	SetFrame(ctx context.Context, w Window, frame Rect) error
	Raise(ctx context.Context, w Window) error
	Displays(ctx context.Context) ([]Display, error)
}

// Scripter runs AppleScript, JavaScript for Automation and shell sources.
type Scripter interface {
	AppleScript(ctx context.Context, source string) (string, error)
	AppleScriptFile(ctx context.Context, path string) (string, error)
	Shell(ctx context.Context, source string) (string, error)
	ShellFile(ctx context.Context, path string) (string, error)
}

// MenuBar clicks menu items.
type MenuBar interface {
	ClickMenuItem(ctx context.Context, bundleID string, path []string) error
}

// Shortcuts drives the Shortcuts app.
type Shortcuts interface {
	RunShortcut(ctx context.Context, identifier string) error
	ListShortcuts(ctx context.Context) ([]string, error)
	RevealShortcut(ctx context.Context, identifier string) error
}
