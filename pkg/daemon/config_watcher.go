package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/debounce"
)

var errNothingToWatch = kferrors.New(kferrors.ErrCodeInvalidInput, "no configuration files to watch")

// ConfigWatcher watches the settings and groups files and calls onReload
// after a burst of changes has settled.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	ignore  *patternmatcher.PatternMatcher
	logger  *logrus.Entry
	pending *debounce.Latest[string]

	// tracked maps every watched file, and the target of a watched
	// symlink, to the name reported to onReload.
	tracked map[string]string
}

// NewConfigWatcher watches files. Files matching one of the ignore patterns
// never trigger a reload. fsnotify does not follow symlinks, so the
// directory of each link target is watched as well.
func NewConfigWatcher(files, ignore []string, delay time.Duration, onReload func(file string)) (*ConfigWatcher, error) {
	matcher, err := patternmatcher.New(ignore)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	w := &ConfigWatcher{
		watcher: watcher,
		ignore:  matcher,
		logger:  logging.NewLogger("config-watcher"),
		tracked: make(map[string]string),
	}
	w.pending = debounce.NewLatest(delay, func(file string) {
		w.logger.Infof("Config changed: %s", filepath.Base(file))
		if onReload != nil {
			onReload(file)
		}
	})

	watched := make(map[string]bool)
	watch := func(dir string) {
		if watched[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			w.logger.WithError(err).Warnf("Failed to watch %s", dir)
			return
		}
		watched[dir] = true
	}

	for _, file := range files {
		if file == "" {
			continue
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		w.tracked[abs] = abs
		watch(filepath.Dir(abs))

		if target, err := filepath.EvalSymlinks(abs); err == nil && target != abs {
			w.tracked[target] = abs
			watch(filepath.Dir(target))
			w.logger.Debugf("Watching symlink target %s", target)
		}
	}

	if len(watched) == 0 {
		watcher.Close()
		return nil, errNothingToWatch
	}
	return w, nil
}

// Start begins watching for config changes. It blocks until the context is cancelled.
func (w *ConfigWatcher) Start(ctx context.Context) {
	defer w.pending.Stop()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if file, ok := w.relevant(event.Name); ok {
				w.pending.Push(file)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// relevant maps an event path to the tracked file it concerns.
func (w *ConfigWatcher) relevant(name string) (string, bool) {
	file, ok := w.tracked[filepath.Clean(name)]
	if !ok {
		return "", false
	}
	if ignored, err := w.ignore.MatchesOrParentMatches(filepath.Base(file)); err == nil && ignored {
		w.logger.Debugf("Ignored change to %s", filepath.Base(file))
		return "", false
	}
	return file, true
}

// Close stops the watcher and releases resources.
func (w *ConfigWatcher) Close() error {
	w.pending.Stop()
	return w.watcher.Close()
}
