package runner

import (
	"context"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// Shortcut runs shortcuts from the Shortcuts app.
type Shortcut struct {
	shortcuts platform.Shortcuts
}

func NewShortcut(shortcuts platform.Shortcuts) *Shortcut {
	return &Shortcut{shortcuts: shortcuts}
}

func (s *Shortcut) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.ShortcutCommand)
	if !ok {
		return unexpected(models.KindShortcut, cmd)
	}
	if c.ShortcutIdentifier == "" {
		return kferrors.New(kferrors.ErrCodeInvalidInput, "shortcut command has no identifier")
	}
	return s.shortcuts.RunShortcut(ctx, c.ShortcutIdentifier)
}

// Reveal opens the shortcut in the Shortcuts editor.
func (s *Shortcut) Reveal(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.ShortcutCommand)
	if !ok {
		return unexpected(models.KindShortcut, cmd)
	}
	return s.shortcuts.RevealShortcut(ctx, c.ShortcutIdentifier)
}

// List returns the names of the saved shortcuts.
func (s *Shortcut) List(ctx context.Context) ([]string, error) {
	return s.shortcuts.ListShortcuts(ctx)
}
