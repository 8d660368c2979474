package runner

import (
	"context"
	"math"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
	"github.com/grovetools/keyflow/pkg/platform"
)

const (
	// DefaultWindowStep is used when a move or resize sets no amount.
	DefaultWindowStep = 50
	// MinWindowSize keeps shrinking windows usable.
	MinWindowSize = 100
)

// Window moves and resizes the focused window.
type Window struct {
	windows platform.WindowServer
}

func NewWindow(windows platform.WindowServer) *Window {
	return &Window{windows: windows}
}

func (w *Window) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.WindowCommand)
	if !ok {
		return unexpected(models.KindWindow, cmd)
	}
	focused, err := w.windows.FocusedWindow(ctx)
	if err != nil {
		return err
	}
	displays, err := w.windows.Displays(ctx)
	if err != nil {
		return err
	}
	if len(displays) == 0 {
		return kferrors.MissingCapability("displays")
	}
	frame, ok := Geometry(c, focused.Bounds, displays)
	if !ok || frame == focused.Bounds {
		return nil
	}
	return w.windows.SetFrame(ctx, focused, frame)
}

// Geometry computes the new frame for a window command. It reports false
// when the command leaves the window where it is.
func Geometry(c models.WindowCommand, frame platform.Rect, displays []platform.Display) (platform.Rect, bool) {
	if len(displays) == 0 {
		return frame, false
	}
	idx := displayIndex(frame, displays)
	screen := displays[idx].Visible
	by := float64(c.By)
	if by == 0 {
		by = DefaultWindowStep
	}

	var out platform.Rect
	switch c.Action {
	case models.WindowIncreaseSize:
		out = resize(frame, c.Direction, by)
		if c.ConstrainedToScreen {
			out = intersect(out, screen)
		}
	case models.WindowDecreaseSize:
		out = resize(frame, c.Direction, -by)
	case models.WindowMove:
		dx, dy := directionVector(c.Direction)
		out = frame
		out.X += dx * by
		out.Y += dy * by
		if c.ConstrainedToScreen {
			out = clampInside(out, screen)
		}
	case models.WindowFullscreen:
		p := float64(c.Padding)
		out = platform.Rect{X: screen.X + p, Y: screen.Y + p, Width: screen.Width - 2*p, Height: screen.Height - 2*p}
	case models.WindowCenter:
		out = centered(frame, screen)
	case models.WindowMoveToNextDisplay:
		if len(displays) < 2 {
			return frame, false
		}
		next := displays[(idx+1)%len(displays)].Visible
		if c.Mode == models.NextDisplayRelative {
			out = relative(frame, screen, next)
		} else {
			out = centered(frame, next)
		}
	default:
		return frame, false
	}
	return rounded(out), true
}

// displayIndex picks the display under the window's center, defaulting to
// the first one.
func displayIndex(frame platform.Rect, displays []platform.Display) int {
	cx, cy := frame.Center()
	for i, d := range displays {
		if d.Frame.Contains(cx, cy) {
			return i
		}
	}
	return 0
}

func directionVector(d models.Direction) (float64, float64) {
	switch d {
	case models.DirectionLeading:
		return -1, 0
	case models.DirectionTopLeading:
		return -1, -1
	case models.DirectionTop:
		return 0, -1
	case models.DirectionTopTrailing:
		return 1, -1
	case models.DirectionTrailing:
		return 1, 0
	case models.DirectionBottomTrailing:
		return 1, 1
	case models.DirectionBottom:
		return 0, 1
	case models.DirectionBottomLeading:
		return -1, 1
	}
	return 0, 0
}

// resize grows (delta > 0) or shrinks the edges facing direction. Without a
// direction both axes change around the center.
func resize(frame platform.Rect, d models.Direction, delta float64) platform.Rect {
	dx, dy := directionVector(d)
	out := frame
	if dx == 0 && dy == 0 {
		out.Width = math.Max(frame.Width+2*delta, MinWindowSize)
		out.Height = math.Max(frame.Height+2*delta, MinWindowSize)
		out.X = frame.X - (out.Width-frame.Width)/2
		out.Y = frame.Y - (out.Height-frame.Height)/2
		return out
	}
	if dx != 0 {
		out.Width = math.Max(frame.Width+delta, MinWindowSize)
		if dx < 0 {
			out.X = frame.MaxX() - out.Width
		}
	}
	if dy != 0 {
		out.Height = math.Max(frame.Height+delta, MinWindowSize)
		if dy < 0 {
			out.Y = frame.MaxY() - out.Height
		}
	}
	return out
}

func intersect(a, b platform.Rect) platform.Rect {
	x := math.Max(a.X, b.X)
	y := math.Max(a.Y, b.Y)
	maxX := math.Min(a.MaxX(), b.MaxX())
	maxY := math.Min(a.MaxY(), b.MaxY())
	return platform.Rect{X: x, Y: y, Width: math.Max(maxX-x, 0), Height: math.Max(maxY-y, 0)}
}

func clampInside(r, screen platform.Rect) platform.Rect {
	r.Width = math.Min(r.Width, screen.Width)
	r.Height = math.Min(r.Height, screen.Height)
	r.X = math.Min(math.Max(r.X, screen.X), screen.MaxX()-r.Width)
	r.Y = math.Min(math.Max(r.Y, screen.Y), screen.MaxY()-r.Height)
	return r
}

func centered(frame, screen platform.Rect) platform.Rect {
	w := math.Min(frame.Width, screen.Width)
	h := math.Min(frame.Height, screen.Height)
	return platform.Rect{
		X:      screen.X + (screen.Width-w)/2,
		Y:      screen.Y + (screen.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// relative keeps the window's proportional position and size when moving it
// from one screen to another.
func relative(frame, from, to platform.Rect) platform.Rect {
	if from.Width <= 0 || from.Height <= 0 {
		return centered(frame, to)
	}
	sx := to.Width / from.Width
	sy := to.Height / from.Height
	out := platform.Rect{
		X:      to.X + (frame.X-from.X)*sx,
		Y:      to.Y + (frame.Y-from.Y)*sy,
		Width:  frame.Width * sx,
		Height: frame.Height * sy,
	}
	return clampInside(out, to)
}

func rounded(r platform.Rect) platform.Rect {
	return platform.Rect{X: math.Round(r.X), Y: math.Round(r.Y), Width: math.Round(r.Width), Height: math.Round(r.Height)}
}
