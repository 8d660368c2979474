package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloads struct {
	mu    sync.Mutex
	files []string
}

func (r *reloads) add(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, file)
}

func (r *reloads) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

func TestConfigWatcherCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	groups := filepath.Join(dir, "groups.yml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(groups, []byte("groups: []\n"), 0644))

	var got reloads
	w, err := NewConfigWatcher([]string{groups}, nil, 20*time.Millisecond, got.add)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	for range 3 {
		require.NoError(t, os.WriteFile(groups, []byte("groups: []\n"), 0644))
	}
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))

	assert.Eventually(t, func() bool { return len(got.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	abs, _ := filepath.Abs(groups)
	assert.Equal(t, []string{abs}, got.get())
}

func TestConfigWatcherIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "keyflow.yml")
	override := filepath.Join(dir, "keyflow.override.yml")
	require.NoError(t, os.WriteFile(settings, nil, 0644))

	var got reloads
	w, err := NewConfigWatcher([]string{settings, override}, []string{"*.override.yml"}, 10*time.Millisecond, got.add)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(override, []byte("engine: {}\n"), 0644))
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, got.get())

	require.NoError(t, os.WriteFile(settings, []byte("engine: {}\n"), 0644))
	assert.Eventually(t, func() bool { return len(got.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestConfigWatcherRejectsBadPatterns(t *testing.T) {
	_, err := NewConfigWatcher([]string{"keyflow.yml"}, []string{"["}, 0, nil)
	assert.Error(t, err)

	_, err = NewConfigWatcher(nil, nil, 0, nil)
	assert.Error(t, err)
}
