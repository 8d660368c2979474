package platform

import (
	"context"

	kferrors "github.com/grovetools/keyflow/errors"
)

const snapshotScript = `
ObjC.import('AppKit');
(function () {
	const ws = $.NSWorkspace.sharedWorkspace;
	const apps = ws.runningApplications;
	const front = ws.frontmostApplication;
	const out = [];
	for (let i = 0; i < apps.count; i++) {
		const a = apps.objectAtIndex(i);
		if (a.activationPolicy !== 0) continue;
		out.push({
			bundle_identifier: ObjC.unwrap(a.bundleIdentifier) || '',
			name: ObjC.unwrap(a.localizedName) || '',
			path: a.bundleURL.isNil() ? '' : ObjC.unwrap(a.bundleURL.path),
			pid: a.processIdentifier,
			hidden: a.hidden,
			active: a.active,
		});
	}
	return JSON.stringify({
		frontmost: front.isNil() ? '' : (ObjC.unwrap(front.bundleIdentifier) || ''),
		applications: out,
	});
})()
`

const setVisibleScript = `function (bundle, visible) {
	const se = Application('System Events');
	const procs = se.processes.whose({ bundleIdentifier: bundle });
	if (procs.length === 0) throw new Error('not running: ' + bundle);
	procs[0].visible = visible;
	return 'ok';
}`

// Snapshot lists regular (Dock-visible) applications and the frontmost one.
func (m *MacOS) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := m.jxaJSON(ctx, snapshotScript, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (m *MacOS) Launch(ctx context.Context, bundleID string, opts LaunchOptions) error {
	args := []string{}
	if opts.Background {
		args = append(args, "-g")
	}
	if opts.Hidden {
		args = append(args, "-j")
	}
	args = append(args, "-b", bundleID)
	if _, err := m.run(ctx, "open", args...); err != nil {
		return kferrors.ApplicationMissing(bundleID).WithDetail("cause", err.Error())
	}
	return nil
}

func (m *MacOS) Activate(ctx context.Context, bundleID string) error {
	_, err := m.run(ctx, "osascript", "-e", `tell application id "`+escapeAppleScript(bundleID)+`" to activate`)
	return err
}

func (m *MacOS) Hide(ctx context.Context, bundleID string) error {
	_, err := m.jxa(ctx, call(setVisibleScript, bundleID, false))
	return err
}

func (m *MacOS) Unhide(ctx context.Context, bundleID string) error {
	_, err := m.jxa(ctx, call(setVisibleScript, bundleID, true))
	return err
}

func (m *MacOS) Terminate(ctx context.Context, bundleID string) error {
	_, err := m.run(ctx, "osascript", "-e", `tell application id "`+escapeAppleScript(bundleID)+`" to quit`)
	return err
}

func (m *MacOS) Open(ctx context.Context, target, bundleID string) error {
	args := []string{}
	if bundleID != "" {
		args = append(args, "-b", bundleID)
	}
	args = append(args, target)
	_, err := m.run(ctx, "open", args...)
	return err
}

func (m *MacOS) Reveal(ctx context.Context, path string) error {
	_, err := m.run(ctx, "open", "-R", path)
	return err
}

// OpenApplication opens an application by name, passing args to it.
func (m *MacOS) OpenApplication(ctx context.Context, name string, args ...string) error {
	full := []string{"-a", name}
	if len(args) > 0 {
		full = append(full, "--args")
		full = append(full, args...)
	}
	_, err := m.run(ctx, "open", full...)
	return err
}
