package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/keyflow/pkg/paths"
)

// dailyFileWriter opens its file lazily and, when it follows the default
// per-component path, rolls over to a new file when the date changes.
type dailyFileWriter struct {
	mu        sync.Mutex
	component string
	fixedPath string
	openPath  string
	file      io.WriteCloser
	now       func() time.Time
}

func newDailyFileWriter(component, fixedPath string) *dailyFileWriter {
	return &dailyFileWriter{component: component, fixedPath: fixedPath, now: time.Now}
}

func (w *dailyFileWriter) path() string {
	if w.fixedPath != "" {
		return w.fixedPath
	}
	name := fmt.Sprintf("%s-%s.log", w.component, w.now().Format("2006-01-02"))
	return filepath.Join(paths.LogsDir(), name)
}

func (w *dailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	target := w.path()
	if w.file == nil || target != w.openPath {
		if w.file != nil {
			w.file.Close()
			w.file = nil
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return 0, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, fmt.Errorf("opening log file: %w", err)
		}
		w.file, w.openPath = f, target
	}
	return w.file.Write(p)
}

func (w *dailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
