package platform

import (
	"context"

	kferrors "github.com/grovetools/keyflow/errors"
)

const windowsScript = `function (onScreenOnly) {
	ObjC.import('CoreGraphics');
	const opts = onScreenOnly ? (1 | 16) : 0;
	const info = ObjC.deepUnwrap(ObjC.castRefToObject($.CGWindowListCopyWindowInfo(opts, 0))) || [];
	return JSON.stringify(info.map(function (w) {
		const b = w.kCGWindowBounds || {};
		return {
			id: w.kCGWindowNumber,
			owner: w.kCGWindowOwnerName || '',
			pid: w.kCGWindowOwnerPID,
			title: w.kCGWindowName || '',
			layer: w.kCGWindowLayer || 0,
			onscreen: !!w.kCGWindowIsOnscreen,
			bounds: { x: b.X || 0, y: b.Y || 0, width: b.Width || 0, height: b.Height || 0 },
		};
	}));
}`

const focusedWindowScript = `function () {
	const se = Application('System Events');
	const p = se.processes.whose({ frontmost: true })[0];
	if (p.windows.length === 0) throw new Error('no focused window');
	const w = p.windows[0];
	const pos = w.position();
	const size = w.size();
	return JSON.stringify({
		id: 0,
		owner: p.name(),
		pid: p.unixId(),
		bundle: p.bundleIdentifier(),
		title: w.name() || '',
		layer: 0,
		onscreen: true,
		bounds: { x: pos[0], y: pos[1], width: size[0], height: size[1] },
	});
}`

const setFrameScript = `function (pid, title, x, y, width, height) {
	const se = Application('System Events');
	const p = se.processes.whose({ unixId: pid })[0];
	let w = p.windows[0];
	if (title) {
		const named = p.windows.whose({ name: title });
		if (named.length > 0) w = named[0];
	}
	w.position = [Math.round(x), Math.round(y)];
	w.size = [Math.round(width), Math.round(height)];
	return 'ok';
}`

const raiseScript = `function (pid, title) {
	const se = Application('System Events');
	const p = se.processes.whose({ unixId: pid })[0];
	let w = null;
	if (title) {
		const named = p.windows.whose({ name: title });
		if (named.length > 0) w = named[0];
	}
	if (w === null) {
		if (p.windows.length === 0) throw new Error('window not found');
		w = p.windows[0];
	}
	w.actions.byName('AXRaise').perform();
	p.frontmost = true;
	return 'ok';
}`

const displaysScript = `function () {
	ObjC.import('AppKit');
	const screens = $.NSScreen.screens;
	if (screens.count === 0) return '[]';
	const mainHeight = screens.objectAtIndex(0).frame.size.height;
	const flip = function (r) {
		return { x: r.origin.x, y: mainHeight - (r.origin.y + r.size.height), width: r.size.width, height: r.size.height };
	};
	const out = [];
	for (let i = 0; i < screens.count; i++) {
		const s = screens.objectAtIndex(i);
		out.push({ id: i, frame: flip(s.frame), visible: flip(s.visibleFrame) });
	}
	return JSON.stringify(out);
}`

func (m *MacOS) Windows(ctx context.Context, onScreenOnly bool) ([]Window, error) {
	var windows []Window
	if err := m.jxaJSON(ctx, call(windowsScript, onScreenOnly), &windows); err != nil {
		return nil, err
	}
	return windows, nil
}

func (m *MacOS) FocusedWindow(ctx context.Context) (Window, error) {
	var w Window
	if err := m.jxaJSON(ctx, call(focusedWindowScript), &w); err != nil {
		return Window{}, kferrors.WindowNotFound("no focused window").WithDetail("cause", err.Error())
	}
	return w, nil
}

func (m *MacOS) SetFrame(ctx context.Context, w Window, frame Rect) error {
	_, err := m.jxa(ctx, call(setFrameScript, w.OwnerPID, w.Title, frame.X, frame.Y, frame.Width, frame.Height))
	return err
}

func (m *MacOS) Raise(ctx context.Context, w Window) error {
	if _, err := m.jxa(ctx, call(raiseScript, w.OwnerPID, w.Title)); err != nil {
		return kferrors.WindowNotFound(w.Title).WithDetail("cause", err.Error())
	}
	return nil
}

func (m *MacOS) Displays(ctx context.Context) ([]Display, error) {
	var displays []Display
	if err := m.jxaJSON(ctx, call(displaysScript), &displays); err != nil {
		return nil, err
	}
	return displays, nil
}
