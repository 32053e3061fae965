// Package manip turns direct-manipulation gestures on the selected element
// into transform edits on a scene store.
package manip

import (
	"math"
	"time"

	"github.com/deylin/studio/internal/scene"
)

// Anchor names the handle that stays fixed during a resize. AnchorCenter
// resizes around the element's center.
type Anchor string

const (
	AnchorCenter      Anchor = "center"
	AnchorTopLeft     Anchor = "topLeft"
	AnchorTopRight    Anchor = "topRight"
	AnchorBottomLeft  Anchor = "bottomLeft"
	AnchorBottomRight Anchor = "bottomRight"
)

// ParseAnchor maps a wire name to an Anchor, defaulting to the center.
func ParseAnchor(s string) Anchor {
	switch a := Anchor(s); a {
	case AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight:
		return a
	default:
		return AnchorCenter
	}
}

// point returns the anchor's position in the element's local box.
func (a Anchor) point(w, h float64) (float64, float64) {
	switch a {
	case AnchorTopLeft:
		return 0, 0
	case AnchorTopRight:
		return w, 0
	case AnchorBottomLeft:
		return 0, h
	case AnchorBottomRight:
		return w, h
	default:
		return w / 2, h / 2
	}
}

// Pinch is one step of a two-finger gesture: a relative scale change
// (0.1 = 10% larger) and a rotation change in degrees.
type Pinch struct {
	ScaleDelta float64 `json:"scaleDelta"`
	RotDelta   float64 `json:"rotDelta"`
}

const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 10
)

type Options struct {
	// Clamp keeps the element's bounding box inside the frame while dragging.
	Clamp bool

	// Window is the coalescing window. Defaults to DefaultWindow.
	Window time.Duration
	Clock  Clock

	MinScale float64
	MaxScale float64
}

// Controller applies gestures to the selected element. Each step is written
// as a preview and folded into one history entry per gesture. Every method
// is a no-op returning false when nothing is selected.
type Controller struct {
	store     *scene.Store
	coalescer *Coalescer
	clamp     bool
	minScale  float64
	maxScale  float64
}

func NewController(store *scene.Store, opts Options) *Controller {
	c := &Controller{
		store:     store,
		coalescer: NewCoalescer(store, opts.Clock, opts.Window),
		clamp:     opts.Clamp,
		minScale:  opts.MinScale,
		maxScale:  opts.MaxScale,
	}
	if c.minScale <= 0 {
		c.minScale = DefaultMinScale
	}
	if c.maxScale < c.minScale {
		c.maxScale = max(DefaultMaxScale, c.minScale)
	}
	return c
}

// DragDelta moves the selected element by (dx, dy). With clamping on, the
// moved box is pushed back inside the frame.
func (c *Controller) DragDelta(dx, dy float64) bool {
	if !finite(dx) || !finite(dy) {
		return false
	}
	fw, fh := c.store.FrameSize()
	return c.preview(func(e scene.Element) (scene.Patch, bool) {
		x, y := e.Transform.X+dx, e.Transform.Y+dy
		if c.clamp {
			moved := e
			moved.Transform.X, moved.Transform.Y = x, y
			x, y = clampInto(moved, fw, fh)
		}
		return scene.Patch{X: &x, Y: &y}, true
	})
}

// Scale resizes the selected element to the scale of t, keeping the anchor
// handle fixed on screen. Text resizes freely; other kinds keep their aspect
// ratio. Rotation is taken from the element, not from t.
func (c *Controller) Scale(t scene.Transform, anchor Anchor) bool {
	if !finite(t.ScaleX) || !finite(t.ScaleY) || t.ScaleX == 0 || t.ScaleY == 0 {
		return false
	}
	return c.preview(func(e scene.Element) (scene.Patch, bool) {
		old := e.Transform
		sx, sy := t.ScaleX, t.ScaleY
		if e.Kind != scene.KindText {
			f := dominantFactor(sx/old.ScaleX, sy/old.ScaleY)
			sx, sy = old.ScaleX*f, old.ScaleY*f
		}
		sx, sy = c.limitScale(sx), c.limitScale(sy)

		next := old
		next.ScaleX, next.ScaleY = sx, sy
		next.X, next.Y = anchoredOrigin(e, next, anchor)
		return scene.Patch{X: &next.X, Y: &next.Y, ScaleX: &next.ScaleX, ScaleY: &next.ScaleY}, true
	})
}

// Rotate sets the selected element's rotation to t's. Translation and scale
// are not touched.
func (c *Controller) Rotate(t scene.Transform) bool {
	if !finite(t.Rotation) {
		return false
	}
	r := scene.NormalizeDegrees(t.Rotation)
	return c.preview(func(scene.Element) (scene.Patch, bool) {
		return scene.Patch{Rotation: &r}, true
	})
}

// RotateBy turns the selected element by delta degrees.
func (c *Controller) RotateBy(delta float64) bool {
	if !finite(delta) {
		return false
	}
	return c.preview(func(e scene.Element) (scene.Patch, bool) {
		r := scene.NormalizeDegrees(e.Transform.Rotation + delta)
		return scene.Patch{Rotation: &r}, true
	})
}

// Pinch applies a two-finger step around the element's center. Scale is
// uniform for every kind.
func (c *Controller) Pinch(p Pinch) bool {
	if !finite(p.ScaleDelta) || !finite(p.RotDelta) {
		return false
	}
	f := 1 + p.ScaleDelta
	if f <= 0 {
		return false
	}
	return c.preview(func(e scene.Element) (scene.Patch, bool) {
		t := e.Transform
		sx, sy := c.limitScale(t.ScaleX*f), c.limitScale(t.ScaleY*f)
		r := scene.NormalizeDegrees(t.Rotation + p.RotDelta)
		return scene.Patch{ScaleX: &sx, ScaleY: &sy, Rotation: &r}, true
	})
}

// End finishes the current gesture and commits it immediately.
func (c *Controller) End() bool {
	return c.coalescer.Flush()
}

// Flush commits pending steps without waiting for the window.
func (c *Controller) Flush() bool {
	return c.coalescer.Flush()
}

// Pending reports whether gesture steps are waiting to be committed.
func (c *Controller) Pending() bool {
	return c.coalescer.Pending()
}

// preview applies fn to the selected element atomically and re-arms the
// coalescer.
func (c *Controller) preview(fn func(scene.Element) (scene.Patch, bool)) bool {
	if _, ok := c.store.PreviewSelected(fn); !ok {
		return false
	}
	c.coalescer.Touch()
	return true
}

// limitScale bounds the magnitude of a scale factor, keeping its sign.
func (c *Controller) limitScale(s float64) float64 {
	mag := math.Min(math.Max(math.Abs(s), c.minScale), c.maxScale)
	return math.Copysign(mag, s)
}

// dominantFactor picks the axis change the user pulled hardest on.
func dominantFactor(fx, fy float64) float64 {
	if math.Abs(math.Log(math.Abs(fx))) >= math.Abs(math.Log(math.Abs(fy))) {
		return fx
	}
	return fy
}

// anchoredOrigin returns the X/Y that keep the anchor of e at the same frame
// position once e takes transform next.
func anchoredOrigin(e scene.Element, next scene.Transform, anchor Anchor) (float64, float64) {
	w, h := e.Size.Width, e.Size.Height
	ax, ay := anchor.point(w, h)
	vx, vy := ax-w/2, ay-h/2

	before := scene.FromTransform(0, 0, e.Transform.ScaleX, e.Transform.ScaleY, e.Transform.Rotation, 0, 0)
	after := scene.FromTransform(0, 0, next.ScaleX, next.ScaleY, next.Rotation, 0, 0)
	bx, by := before.TransformVector(vx, vy)
	nx, ny := after.TransformVector(vx, vy)

	return e.Transform.X + bx - nx, e.Transform.Y + by - ny
}

// clampInto returns the X/Y that bring e's bounding box inside a w by h
// frame. A box larger than the frame is aligned to the top-left edge.
func clampInto(e scene.Element, w, h float64) (float64, float64) {
	b := e.Bounds()
	x, y := e.Transform.X, e.Transform.Y

	if b.X+b.Width > w {
		x -= b.X + b.Width - w
		b.X = w - b.Width
	}
	if b.X < 0 {
		x -= b.X
	}
	if b.Y+b.Height > h {
		y -= b.Y + b.Height - h
		b.Y = h - b.Height
	}
	if b.Y < 0 {
		y -= b.Y
	}
	return x, y
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
