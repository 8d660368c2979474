package logging

import (
	"io"
	"os"
	"sync"
)

// sink is the stderr destination shared by every logger. Swapping it
// affects loggers that were created earlier.
type sink struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.RLock()
	w := s.w
	s.mu.RUnlock()
	return w.Write(p)
}

// swap installs w and returns the previous destination.
func (s *sink) swap(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

var stderrSink = &sink{w: os.Stderr}

// SetGlobalOutput redirects the stderr sink of every logger.
func SetGlobalOutput(w io.Writer) {
	stderrSink.swap(w)
}

// GetGlobalOutput returns the swappable stderr sink.
func GetGlobalOutput() io.Writer {
	return stderrSink
}

// Redirect sends stderr log output to w until the returned func is called,
// which restores whatever destination was active before.
func Redirect(w io.Writer) (restore func()) {
	prev := stderrSink.swap(w)
	var once sync.Once
	return func() {
		once.Do(func() { stderrSink.swap(prev) })
	}
}
