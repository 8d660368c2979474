package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

type postedKey struct {
	Code  uint16
	Flags models.ModifierFlags
	Down  bool
}

type fakePoster struct {
	mu   sync.Mutex
	keys []postedKey
	text []string
}

func (p *fakePoster) PostKey(code uint16, flags models.ModifierFlags, down bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, postedKey{Code: code, Flags: flags, Down: down})
	return nil
}

func (p *fakePoster) PostText(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = append(p.text, text)
	return nil
}

func (p *fakePoster) downs() []postedKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []postedKey
	for _, k := range p.keys {
		if k.Down {
			out = append(out, k)
		}
	}
	return out
}

// fakeWorkspace records calls as "verb arg" strings.
type fakeWorkspace struct {
	mu       sync.Mutex
	snapshot platform.Snapshot
	calls    []string
	fail     map[string]error
}

func (w *fakeWorkspace) record(verb, arg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, verb+" "+arg)
	return w.fail[verb]
}

func (w *fakeWorkspace) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWorkspace) Snapshot(context.Context) (platform.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot, w.fail["snapshot"]
}

func (w *fakeWorkspace) Launch(_ context.Context, bundleID string, opts platform.LaunchOptions) error {
	return w.record("launch", fmt.Sprintf("%s bg=%t hidden=%t", bundleID, opts.Background, opts.Hidden))
}

func (w *fakeWorkspace) Activate(_ context.Context, bundleID string) error {
	return w.record("activate", bundleID)
}

func (w *fakeWorkspace) Hide(_ context.Context, bundleID string) error {
	return w.record("hide", bundleID)
}

func (w *fakeWorkspace) Unhide(_ context.Context, bundleID string) error {
	return w.record("unhide", bundleID)
}

func (w *fakeWorkspace) Terminate(_ context.Context, bundleID string) error {
	return w.record("terminate", bundleID)
}

func (w *fakeWorkspace) Open(_ context.Context, target, bundleID string) error {
	return w.record("open", target+" "+bundleID)
}

func (w *fakeWorkspace) Reveal(_ context.Context, path string) error {
	return w.record("reveal", path)
}

func (w *fakeWorkspace) OpenApplication(_ context.Context, name string, args ...string) error {
	return w.record("openapp", fmt.Sprintf("%s %v", name, args))
}

var errNoWindow = errors.New("no window")

type fakeWindows struct {
	mu       sync.Mutex
	windows  []platform.Window
	focused  platform.Window
	displays []platform.Display
	frames   []platform.Rect
	raised   []int
	raiseErr error
}

func (f *fakeWindows) Windows(context.Context, bool) ([]platform.Window, error) {
	return f.windows, nil
}

func (f *fakeWindows) FocusedWindow(context.Context) (platform.Window, error) {
	if f.focused.ID == 0 {
		return platform.Window{}, errNoWindow
	}
	return f.focused, nil
}

func (f *fakeWindows) SetFrame(_ context.Context, _ platform.Window, frame platform.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeWindows) Raise(_ context.Context, w platform.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raised = append(f.raised, w.ID)
	return f.raiseErr
}

func (f *fakeWindows) Displays(context.Context) ([]platform.Display, error) {
	return f.displays, nil
}

type fakeScripter struct {
	calls []string
}

func (f *fakeScripter) AppleScript(_ context.Context, source string) (string, error) {
	f.calls = append(f.calls, "applescript "+source)
	return "as-out", nil
}

func (f *fakeScripter) AppleScriptFile(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, "applescript-file "+path)
	return "", nil
}

func (f *fakeScripter) Shell(_ context.Context, source string) (string, error) {
	f.calls = append(f.calls, "shell "+source)
	return "sh-out", nil
}

func (f *fakeScripter) ShellFile(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, "shell-file "+path)
	return "", nil
}

type fakeMenus struct {
	bundle string
	path   []string
}

func (f *fakeMenus) ClickMenuItem(_ context.Context, bundleID string, path []string) error {
	f.bundle, f.path = bundleID, path
	return nil
}

type fakeShortcuts struct {
	ran      []string
	revealed []string
}

func (f *fakeShortcuts) RunShortcut(_ context.Context, id string) error {
	f.ran = append(f.ran, id)
	return nil
}

func (f *fakeShortcuts) ListShortcuts(context.Context) ([]string, error) {
	return []string{"Morning"}, nil
}

func (f *fakeShortcuts) RevealShortcut(_ context.Context, id string) error {
	f.revealed = append(f.revealed, id)
	return nil
}
