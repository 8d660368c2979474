// Package apps is the installed-applications provider. It scans the
// application directories, reads each bundle's identifier and name, and
// repairs stale application paths in loaded groups.
package apps

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/keyflow/command"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/models"
)

// DefaultDirectories are scanned when no directories are configured.
var DefaultDirectories = []string{
	"/Applications",
	"/Applications/Utilities",
	"/System/Applications",
	"/System/Applications/Utilities",
	"~/Applications",
}

// scanLimit bounds concurrent plist reads.
const scanLimit = 8

// Catalog holds the applications found by the last scan.
type Catalog struct {
	exec        command.Executor
	directories []string
	logger      *logrus.Entry

	mu       sync.RWMutex
	byBundle map[string]models.Application
	all      []models.Application
}

// NewCatalog returns an empty catalog. Call Scan to fill it.
func NewCatalog(ex command.Executor, directories []string) *Catalog {
	if ex == nil {
		ex = &command.RealExecutor{}
	}
	if len(directories) == 0 {
		directories = DefaultDirectories
	}
	return &Catalog{
		exec:        ex,
		directories: directories,
		logger:      logging.NewLogger("apps"),
		byBundle:    make(map[string]models.Application),
	}
}

// Scan replaces the catalog contents with a fresh scan.
func (c *Catalog) Scan(ctx context.Context) error {
	bundles := c.bundles()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanLimit)
	results := make([]models.Application, len(bundles))
	for i, path := range bundles {
		g.Go(func() error {
			app, err := c.read(gctx, path)
			if err != nil {
				c.logger.WithError(err).WithField("path", path).Debug("Skipping bundle")
				return nil
			}
			results[i] = app
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	byBundle := make(map[string]models.Application, len(results))
	all := make([]models.Application, 0, len(results))
	for _, app := range results {
		if app.BundleIdentifier == "" {
			continue
		}
		if _, dup := byBundle[app.BundleIdentifier]; dup {
			continue
		}
		byBundle[app.BundleIdentifier] = app
		all = append(all, app)
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})

	c.mu.Lock()
	c.byBundle = byBundle
	c.all = all
	c.mu.Unlock()

	c.logger.WithField("count", len(all)).Debug("Scanned applications")
	return nil
}

// bundles lists the .app directories in scan order. Earlier directories win
// when the same bundle is installed twice.
func (c *Catalog) bundles() []string {
	var out []string
	for _, dir := range c.directories {
		dir = expandHome(dir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".app") {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
	}
	return out
}

func (c *Catalog) read(ctx context.Context, bundlePath string) (models.Application, error) {
	plist := filepath.Join(bundlePath, "Contents", "Info.plist")
	id, err := c.plistValue(ctx, plist, "CFBundleIdentifier")
	if err != nil {
		return models.Application{}, err
	}
	name, err := c.plistValue(ctx, plist, "CFBundleDisplayName")
	if err != nil || name == "" {
		name, _ = c.plistValue(ctx, plist, "CFBundleName")
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(bundlePath), ".app")
	}
	return models.Application{BundleIdentifier: id, Name: name, Path: bundlePath}, nil
}

func (c *Catalog) plistValue(ctx context.Context, plist, key string) (string, error) {
	return command.Run(ctx, c.exec, command.Spec{
		Name: "plutil",
		Args: []string{"-extract", key, "raw", "-o", "-", plist},
	})
}

// Lookup returns the installed application with bundleID.
func (c *Catalog) Lookup(bundleID string) (models.Application, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	app, ok := c.byBundle[bundleID]
	return app, ok
}

// All returns every installed application sorted by name.
func (c *Catalog) All() []models.Application {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Application(nil), c.all...)
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
