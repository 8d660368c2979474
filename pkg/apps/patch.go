package apps

import (
	"github.com/grovetools/keyflow/pkg/models"
)

// Lookup finds an installed application by bundle identifier.
type Lookup interface {
	Lookup(bundleID string) (models.Application, bool)
}

// Patch rewrites application references whose path no longer matches the
// installed bundle. It returns the number of references it changed. Groups
// are modified in place.
func Patch(groups []models.Group, installed Lookup) int {
	patched := 0
	fix := func(app *models.Application) {
		if app == nil || app.BundleIdentifier == "" {
			return
		}
		current, ok := installed.Lookup(app.BundleIdentifier)
		if !ok || current.Path == app.Path {
			return
		}
		app.Path = current.Path
		if app.Name == "" {
			app.Name = current.Name
		}
		patched++
	}

	for gi := range groups {
		for wi := range groups[gi].Workflows {
			cmds := groups[gi].Workflows[wi].Commands
			for ci, cmd := range cmds {
				switch c := cmd.(type) {
				case models.ApplicationCommand:
					fix(&c.Application)
					cmds[ci] = c
				case models.OpenCommand:
					if c.Application != nil {
						app := *c.Application
						fix(&app)
						c.Application = &app
						cmds[ci] = c
					}
				case models.MenuBarCommand:
					if c.Application != nil {
						app := *c.Application
						fix(&app)
						c.Application = &app
						cmds[ci] = c
					}
				}
			}
		}
	}
	return patched
}
