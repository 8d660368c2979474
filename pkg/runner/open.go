package runner

import (
	"context"
	"net/url"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

// Open opens a path or URL.
type Open struct {
	ws platform.Workspace
}

func NewOpen(ws platform.Workspace) *Open {
	return &Open{ws: ws}
}

func (o *Open) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.OpenCommand)
	if !ok {
		return unexpected(models.KindOpen, cmd)
	}
	if c.Path == "" {
		return kferrors.New(kferrors.ErrCodeInvalidInput, "open command has no path")
	}
	var bundle string
	if c.Application != nil {
		bundle = c.Application.BundleIdentifier
	}
	target := c.Path
	if !isURL(target) {
		target = expandPath(target)
	}
	return o.ws.Open(ctx, target, bundle)
}

// Reveal shows local targets in the file browser. URLs are ignored.
func (o *Open) Reveal(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.OpenCommand)
	if !ok {
		return unexpected(models.KindOpen, cmd)
	}
	if c.Path == "" || isURL(c.Path) {
		return nil
	}
	return o.ws.Reveal(ctx, expandPath(c.Path))
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Scheme != "file" && len(u.Scheme) > 1
}
