// Package runner holds the per-kind command runners the dispatch engine
// routes to. Each runner accepts exactly one command variant.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/dispatch"
	"github.com/grovetools/keyflow/pkg/enginestate"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// KeyResolver maps logical keys and characters to hardware codes.
type KeyResolver interface {
	KeyCode(key string) (uint16, error)
	VirtualKey(character string) (keycodes.VirtualKey, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return kferrors.Cancelled()
	case <-timer.C:
		return nil
	}
}

// Set is every runner, ready to register with a dispatch engine.
type Set struct {
	Application *Application
	Keyboard    *Keyboard
	Type        *Type
	Script      *Script
	Open        *Open
	Window      *Window
	System      *System
	MenuBar     *MenuBar
	Shortcut    *Shortcut
	BuiltIn     *BuiltIn
}

// Deps are the collaborators the runners drive.
type Deps struct {
	Workspace    platform.Workspace
	Windows      platform.WindowServer
	Scripts      platform.Scripter
	Menus        platform.MenuBar
	Shortcuts    platform.Shortcuts
	Keys         KeyResolver
	Poster       keytap.Poster
	State        *enginestate.Machine
	LastKeyboard LastKeyboardFunc
	Typing       NaturalTyping
	// WindowIndexDebounce coalesces window reindex requests.
	WindowIndexDebounce time.Duration
}

// NewSet builds every runner from d.
func NewSet(d Deps) *Set {
	keyboard := NewKeyboard(d.Keys, d.Poster)
	return &Set{
		Application: NewApplication(d.Workspace),
		Keyboard:    keyboard,
		Type:        NewType(d.Keys, d.Poster, d.Typing),
		Script:      NewScript(d.Scripts, d.Workspace),
		Open:        NewOpen(d.Workspace),
		Window:      NewWindow(d.Windows),
		System:      NewSystem(d.Workspace, d.Windows, d.Poster, d.WindowIndexDebounce),
		MenuBar:     NewMenuBar(d.Menus, d.Workspace),
		Shortcut:    NewShortcut(d.Shortcuts),
		BuiltIn:     NewBuiltIn(d.State, keyboard, d.LastKeyboard),
	}
}

// Register routes every command kind to its runner.
func (s *Set) Register(e *dispatch.Engine) {
	e.Register(models.KindApplication, s.Application)
	e.Register(models.KindKeyboard, s.Keyboard)
	e.Register(models.KindType, s.Type)
	e.Register(models.KindScript, s.Script)
	e.Register(models.KindOpen, s.Open)
	e.Register(models.KindWindow, s.Window)
	e.Register(models.KindSystem, s.System)
	e.Register(models.KindMenuBar, s.MenuBar)
	e.Register(models.KindShortcut, s.Shortcut)
	e.Register(models.KindBuiltIn, s.BuiltIn)
}

func unexpected(want models.CommandKind, got models.Command) error {
	return kferrors.New(kferrors.ErrCodeInvalidInput, fmt.Sprintf("%s runner cannot run a %s command", want, got.Kind()))
}

// expandPath resolves a leading ~ against the home directory.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
