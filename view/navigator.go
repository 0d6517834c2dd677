// Package view implements navigation over a plane: zoom, pan, rectangle
// selection, reset and undo, plus the keyframe list consumed by tours.
//
// A Navigator is owned by a single goroutine and is not safe for concurrent
// use. Renderers must work on the snapshot returned by Region or Plane.
package view

import (
	"math"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/plane"
)

// DefaultZoomFactor is the extent scale applied by ZoomIn; ZoomOut applies its inverse.
const DefaultZoomFactor = 0.5

// Option configures a Navigator.
type Option func(*Navigator)

// WithZoomFactor sets the extent scale used by ZoomIn. f must be in (0, 1).
func WithZoomFactor(f float64) Option {
	return func(n *Navigator) {
		if f > 0 && f < 1 {
			n.zoom = f
		}
	}
}

// WithHistoryCap sets the undo depth.
func WithHistoryCap(c int) Option {
	return func(n *Navigator) { n.history = NewHistory(c) }
}

// WithRegion sets the starting region instead of fractal.DefaultRegion.
func WithRegion(r fractal.Region) Option {
	return func(n *Navigator) {
		if r.Validate() == nil {
			n.plane.SetRegion(r)
		}
	}
}

// WithSize attaches the navigator to a w x h surface. Non-positive or
// non-finite sizes are ignored and the navigator keeps its 1x1 surface until
// Resize succeeds.
func WithSize(w, h float64) Option {
	return func(n *Navigator) {
		if validSize(w, h) {
			_ = n.plane.Resize(w, h)
		}
	}
}

func validSize(w, h float64) bool {
	return w > 0 && h > 0 && !math.IsInf(w, 0) && !math.IsInf(h, 0)
}

type point struct{ x, y float64 }

// Navigator is the view state plus the operations that mutate it.
type Navigator struct {
	plane   plane.Plane
	history *History
	zoom    float64

	keyframes []fractal.Region

	dragging  bool
	dragFrom  point
	dragStart fractal.Region
}

// New returns a navigator showing fractal.DefaultRegion. The initial region is
// recorded in the history, so the history is never empty.
func New(opts ...Option) *Navigator {
	n := &Navigator{
		plane:   plane.New(fractal.DefaultRegion, 1, 1),
		history: NewHistory(DefaultHistoryCap),
		zoom:    DefaultZoomFactor,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.history.Push(n.plane.Region())
	return n
}

// Plane returns a copy of the current plane.
func (n *Navigator) Plane() plane.Plane { return n.plane }

// Region returns a snapshot of the current bounds.
func (n *Navigator) Region() fractal.Region { return n.plane.Region() }

// HistoryLen returns the number of recorded snapshots.
func (n *Navigator) HistoryLen() int { return n.history.Len() }

// Dragging reports whether a drag is in progress.
func (n *Navigator) Dragging() bool { return n.dragging }

// Resize attaches the plane to a surface of w x h pixels. The region is kept.
func (n *Navigator) Resize(w, h float64) error {
	return n.plane.Resize(w, h)
}

// record commits any drag in progress, then pushes the current region, so
// history entries stay in the order the actions happened.
func (n *Navigator) record() {
	n.DragEnd()
	n.history.Push(n.plane.Region())
}

// ZoomIn scales the visible extent by the zoom factor around the center.
func (n *Navigator) ZoomIn() {
	n.record()
	n.scale(n.zoom)
}

// ZoomOut scales the visible extent by the inverse zoom factor around the center.
func (n *Navigator) ZoomOut() {
	n.record()
	n.scale(1 / n.zoom)
}

func (n *Navigator) scale(f float64) {
	r := n.plane.Region()
	c := r.Center()
	hw, hh := r.Width()*f/2, r.Height()*f/2
	n.plane.SetRegion(fractal.Region{
		Xmin: real(c) - hw,
		Xmax: real(c) + hw,
		Ymin: imag(c) - hh,
		Ymax: imag(c) + hh,
	})
}

// Reset restores fractal.DefaultRegion.
func (n *Navigator) Reset() {
	n.record()
	n.plane.SetRegion(fractal.DefaultRegion)
}

// DragStart begins a pan at pixel (x, y).
func (n *Navigator) DragStart(x, y float64) {
	n.dragging = true
	n.dragFrom = point{x, y}
	n.dragStart = n.plane.Region()
}

// DragMove pans so the plane point under the drag origin follows the pointer
// to (x, y). It is a no-op without a preceding DragStart.
func (n *Navigator) DragMove(x, y float64) {
	if !n.dragging || n.plane.Validate() != nil {
		return
	}
	dx := (n.dragFrom.x - x) / n.plane.XDen()
	dy := (y - n.dragFrom.y) / n.plane.YDen() // screen y points down
	n.plane.Xmin += dx
	n.plane.Xmax += dx
	n.plane.Ymin += dy
	n.plane.Ymax += dy
	n.dragFrom = point{x, y}
}

// DragEnd finishes a pan. The region from before the drag is recorded once,
// and only if the view moved.
func (n *Navigator) DragEnd() {
	if !n.dragging {
		return
	}
	n.dragging = false
	if n.plane.Region() != n.dragStart {
		n.history.Push(n.dragStart)
	}
}

// SelectRect zooms to the rectangle between pixels (x0, y0) and (x1, y1).
// The shorter side of the selection is widened around its center so that the
// new region has the screen's aspect ratio. Empty selections are ignored.
func (n *Navigator) SelectRect(x0, y0, x1, y1 float64) error {
	conv, err := plane.NewConverter(n.plane)
	if err != nil {
		return err
	}
	left, right := math.Min(x0, x1), math.Max(x0, x1)
	top, bottom := math.Min(y0, y1), math.Max(y0, y1)
	if right == left || bottom == top {
		return nil
	}

	sel := fractal.Region{
		Xmin: conv.ScreenToPlaneX(left),
		Xmax: conv.ScreenToPlaneX(right),
		Ymin: conv.ScreenToPlaneY(bottom),
		Ymax: conv.ScreenToPlaneY(top),
	}
	aspect := n.plane.Aspect()

	next := sel
	if sel.Width()/sel.Height() > aspect {
		cy := (sel.Ymin + sel.Ymax) / 2
		h := sel.Width() / aspect
		next.Ymin, next.Ymax = cy-h/2, cy+h/2
	} else {
		cx := (sel.Xmin + sel.Xmax) / 2
		w := sel.Height() * aspect
		next.Xmin, next.Xmax = cx-w/2, cx+w/2
	}
	if err := next.Validate(); err != nil {
		return err
	}

	n.record()
	n.plane.SetRegion(next)
	return nil
}

// Undo restores the region recorded before the most recent action. The
// initial snapshot is never removed; Undo reports false when nothing is left
// to undo.
func (n *Navigator) Undo() bool {
	n.DragEnd()
	if n.history.Len() <= 1 {
		return false
	}
	r, _ := n.history.Pop()
	n.plane.SetRegion(r)
	return true
}

// SetRegion replaces the bounds without touching history. Tours use it for
// their animation steps.
func (n *Navigator) SetRegion(r fractal.Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	n.plane.SetRegion(r)
	return nil
}

// AddKeyframe appends the current region to the keyframe list.
func (n *Navigator) AddKeyframe() {
	n.keyframes = append(n.keyframes, n.plane.Region())
}

// AppendKeyframe appends r to the keyframe list.
func (n *Navigator) AppendKeyframe(r fractal.Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	n.keyframes = append(n.keyframes, r)
	return nil
}

// Keyframes returns a copy of the keyframe list.
func (n *Navigator) Keyframes() []fractal.Region {
	return append([]fractal.Region(nil), n.keyframes...)
}

// ClearKeyframes empties the keyframe list.
func (n *Navigator) ClearKeyframes() {
	n.keyframes = nil
}
