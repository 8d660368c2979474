package runner

import (
	"context"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// MenuBar clicks a menu item in the target or frontmost application.
type MenuBar struct {
	menus platform.MenuBar
	ws    platform.Workspace
}

func NewMenuBar(menus platform.MenuBar, ws platform.Workspace) *MenuBar {
	return &MenuBar{menus: menus, ws: ws}
}

func (m *MenuBar) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.MenuBarCommand)
	if !ok {
		return unexpected(models.KindMenuBar, cmd)
	}
	if len(c.Tokens) == 0 {
		return kferrors.New(kferrors.ErrCodeInvalidInput, "menu bar command has no menu path")
	}
	var bundle string
	if c.Application != nil {
		bundle = c.Application.BundleIdentifier
	}
	if bundle == "" {
		snap, err := m.ws.Snapshot(ctx)
		if err != nil {
			return err
		}
		bundle = snap.Frontmost
	}
	if bundle == "" {
		return kferrors.ApplicationMissing("frontmost")
	}
	return m.menus.ClickMenuItem(ctx, bundle, c.Tokens)
}
