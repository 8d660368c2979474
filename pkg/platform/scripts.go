package platform

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/grovetools/keyflow/command"
	kferrors "github.com/grovetools/keyflow/errors"
)

// ScriptTimeout bounds user-supplied scripts.
const ScriptTimeout = 5 * time.Minute

const notifyScript = `function (title, message) {
	const app = Application.currentApplication();
	app.includeStandardAdditions = true;
	app.displayNotification(message, { withTitle: title });
	return 'ok';
}`

const clickMenuScript = `function (bundle, path) {
	const se = Application('System Events');
	const procs = se.processes.whose({ bundleIdentifier: bundle });
	if (procs.length === 0) throw new Error('not running: ' + bundle);
	const p = procs[0];
	let item = p.menuBars[0].menuBarItems.byName(path[0]);
	for (let i = 1; i < path.length; i++) {
		item = item.menus[0].menuItems.byName(path[i]);
	}
	item.click();
	return 'ok';
}`

func (m *MacOS) script(ctx context.Context, spec command.Spec) (string, error) {
	if spec.Timeout == 0 {
		spec.Timeout = ScriptTimeout
	}
	out, err := command.Run(ctx, m.exec, spec)
	if err != nil {
		return out, err
	}
	m.logger.WithField("command", spec.Name).Debugf("script produced %d bytes", len(out))
	return out, nil
}

func (m *MacOS) AppleScript(ctx context.Context, source string) (string, error) {
	return m.script(ctx, command.Spec{Name: "osascript", Args: []string{"-"}, Stdin: source})
}

func (m *MacOS) AppleScriptFile(ctx context.Context, path string) (string, error) {
	return m.script(ctx, command.Spec{Name: "osascript", Args: []string{path}})
}

func (m *MacOS) Shell(ctx context.Context, source string) (string, error) {
	return m.script(ctx, command.Spec{Name: "/bin/sh", Args: []string{"-c", source}})
}

func (m *MacOS) ShellFile(ctx context.Context, path string) (string, error) {
	return m.script(ctx, command.Spec{Name: "/bin/sh", Args: []string{path}})
}

// Notify posts a user notification.
func (m *MacOS) Notify(ctx context.Context, title, message string) error {
	_, err := m.jxa(ctx, call(notifyScript, title, message))
	return err
}

// ClickMenuItem clicks the menu item at path, starting from the menu bar
// title, in the application with bundleID.
func (m *MacOS) ClickMenuItem(ctx context.Context, bundleID string, path []string) error {
	if len(path) == 0 {
		return kferrors.New(kferrors.ErrCodeInvalidInput, "menu item path is empty")
	}
	if _, err := m.jxa(ctx, call(clickMenuScript, bundleID, path)); err != nil {
		return kferrors.Wrap(err, kferrors.ErrCodeRunnerFailure, "clicking menu item").
			WithDetail("path", strings.Join(path, " > "))
	}
	return nil
}

// shortcutsCLI fails with MISSING_CAPABILITY when the shortcuts tool is not
// installed (macOS before 12).
func (m *MacOS) shortcutsCLI() error {
	if _, err := m.exec.LookPath("shortcuts"); err != nil {
		return kferrors.MissingCapability("shortcuts command").WithDetail("cause", err.Error())
	}
	return nil
}

func (m *MacOS) RunShortcut(ctx context.Context, identifier string) error {
	if err := m.shortcutsCLI(); err != nil {
		return err
	}
	_, err := m.script(ctx, command.Spec{Name: "shortcuts", Args: []string{"run", identifier}})
	return err
}

func (m *MacOS) ListShortcuts(ctx context.Context) ([]string, error) {
	if err := m.shortcutsCLI(); err != nil {
		return nil, err
	}
	out, err := m.run(ctx, "shortcuts", "list")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (m *MacOS) RevealShortcut(ctx context.Context, identifier string) error {
	_, err := m.run(ctx, "open", "shortcuts://open-shortcut?name="+escapeQuery(identifier))
	return err
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
