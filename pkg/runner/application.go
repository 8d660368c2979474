package runner

import (
	"context"

	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// Application opens, closes, hides and unhides applications.
type Application struct {
	ws     platform.Workspace
	logger *logrus.Entry
}

func NewApplication(ws platform.Workspace) *Application {
	return &Application{ws: ws, logger: logging.NewLogger("runner.application")}
}

func (a *Application) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.ApplicationCommand)
	if !ok {
		return unexpected(models.KindApplication, cmd)
	}
	bundle := c.Application.BundleIdentifier
	if bundle == "" {
		return kferrors.New(kferrors.ErrCodeInvalidInput, "application command has no bundle identifier")
	}

	switch c.Action {
	case models.ApplicationClose:
		return a.ws.Terminate(ctx, bundle)
	case models.ApplicationHide:
		return a.ws.Hide(ctx, bundle)
	case models.ApplicationUnhide:
		return a.ws.Unhide(ctx, bundle)
	case models.ApplicationOpen, "":
		return a.open(ctx, c, bundle)
	default:
		return kferrors.New(kferrors.ErrCodeInvalidInput, "unknown application action: "+string(c.Action))
	}
}

func (a *Application) open(ctx context.Context, c models.ApplicationCommand, bundle string) error {
	snap, err := a.ws.Snapshot(ctx)
	if err != nil {
		return err
	}
	app, running := snap.Find(bundle)
	log := a.logger.WithField("bundle", bundle)

	if running && c.Has(models.ModifierOnlyIfNotRunning) {
		log.Debug("Already running, skipping")
		return nil
	}
	// Hidden toggles: a frontmost target is hidden instead of re-opened.
	if running && c.Has(models.ModifierHidden) && snap.Frontmost == bundle {
		return a.ws.Hide(ctx, bundle)
	}

	if !running {
		return a.ws.Launch(ctx, bundle, platform.LaunchOptions{
			Background: c.Has(models.ModifierBackground),
			Hidden:     c.Has(models.ModifierHidden),
		})
	}

	if app.Hidden && !c.Has(models.ModifierHidden) {
		if err := a.ws.Unhide(ctx, bundle); err != nil {
			return err
		}
	}
	if c.Has(models.ModifierBackground) || snap.Frontmost == bundle {
		return nil
	}
	return a.ws.Activate(ctx, bundle)
}

// Reveal shows the application bundle in the file browser.
func (a *Application) Reveal(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.ApplicationCommand)
	if !ok {
		return unexpected(models.KindApplication, cmd)
	}
	if c.Application.Path == "" {
		return kferrors.ApplicationMissing(c.Application.BundleIdentifier)
	}
	return a.ws.Reveal(ctx, c.Application.Path)
}
