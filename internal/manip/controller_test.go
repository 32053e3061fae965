package manip

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/deylin/studio/internal/scene"
)

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	keep := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case t.at <= c.now:
			t.stopped = true
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	c.timers = keep
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func setup(t *testing.T, opts Options) (*scene.Store, *Controller, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	opts.Clock = clock
	store := scene.NewStore(scene.Options{NewID: seqIDs()})
	return store, NewController(store, opts), clock
}

func selected(t *testing.T, s *scene.Store) scene.Element {
	t.Helper()
	e, ok := s.Selected()
	if !ok {
		t.Fatal("nothing selected")
	}
	return e
}

func boxCenter(r scene.Rect) (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestNoSelectionIsNoop(t *testing.T) {
	store, c, _ := setup(t, Options{})
	id := store.AddElement(scene.KindShape, "", scene.Patch{})
	store.Deselect()
	before := store.Version()

	if c.DragDelta(5, 5) || c.Scale(scene.Transform{ScaleX: 2, ScaleY: 2}, AnchorCenter) ||
		c.Rotate(scene.Transform{Rotation: 30}) || c.Pinch(Pinch{ScaleDelta: 0.1}) {
		t.Error("gesture applied without a selection")
	}
	if store.Version() != before {
		t.Error("store changed")
	}
	e, _ := store.Element(id)
	if e.Transform.X != (scene.DefaultFrameWidth-120)/2.0 {
		t.Errorf("element moved: %+v", e.Transform)
	}
}

func TestDragAccumulates(t *testing.T) {
	store, c, _ := setup(t, Options{})
	store.AddElement(scene.KindEmoji, "", scene.Patch{X: scene.Ptr(10.0), Y: scene.Ptr(20.0)})

	c.DragDelta(5, -3)
	c.DragDelta(1.5, 2)

	tr := selected(t, store).Transform
	if tr.X != 16.5 || tr.Y != 19 {
		t.Errorf("position = (%v, %v), want (16.5, 19)", tr.X, tr.Y)
	}
}

func TestConcurrentGesturesDoNotLoseSteps(t *testing.T) {
	store, c, _ := setup(t, Options{})
	store.AddElement(scene.KindShape, "", scene.Patch{X: scene.Ptr(10.0), Y: scene.Ptr(0.0), Rotation: scene.Ptr(0.0)})

	const workers, steps = 8, 500
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range steps {
				c.DragDelta(0.25, 0.5)
				c.RotateBy(0.125)
			}
		}()
	}
	wg.Wait()

	tr := selected(t, store).Transform
	if tr.X != 10+workers*steps*0.25 || tr.Y != workers*steps*0.5 {
		t.Errorf("position = (%v, %v), want (%v, %v)", tr.X, tr.Y, 10+workers*steps*0.25, workers*steps*0.5)
	}
	if want := math.Mod(workers*steps*0.125, 360); tr.Rotation != want {
		t.Errorf("rotation = %v, want %v", tr.Rotation, want)
	}
}

func TestDragClampsAfterDelta(t *testing.T) {
	store, c, _ := setup(t, Options{Clamp: true})
	store.AddElement(scene.KindShape, "", scene.Patch{X: scene.Ptr(0.0), Y: scene.Ptr(0.0)})

	c.DragDelta(-50, -50)
	tr := selected(t, store).Transform
	if tr.X != 0 || tr.Y != 0 {
		t.Fatalf("clamped to (%v, %v), want (0, 0)", tr.X, tr.Y)
	}

	// Pushing against the edge does not stick: the next step moves away at once.
	c.DragDelta(30, 40)
	tr = selected(t, store).Transform
	if tr.X != 30 || tr.Y != 40 {
		t.Errorf("after moving away = (%v, %v), want (30, 40)", tr.X, tr.Y)
	}

	c.DragDelta(1000, 1000)
	b := selected(t, store).Bounds()
	assertNear(t, "right edge", b.X+b.Width, scene.DefaultFrameWidth)
	assertNear(t, "bottom edge", b.Y+b.Height, scene.DefaultFrameHeight)
}

func TestRotatePreservesTranslationAndScale(t *testing.T) {
	store, c, _ := setup(t, Options{})
	store.AddElement(scene.KindImage, "data:,", scene.Patch{
		X: scene.Ptr(37.25), Y: scene.Ptr(-12.5), ScaleX: scene.Ptr(1.7), ScaleY: scene.Ptr(0.6), Rotation: scene.Ptr(10.0),
	})

	for _, r := range []float64{0, 45, 90, 179.5, 270, -30, 725} {
		before := selected(t, store)
		proposed := before.Transform
		proposed.X, proposed.Y, proposed.ScaleX = 999, 999, 999
		proposed.Rotation = r

		if !c.Rotate(proposed) {
			t.Fatalf("Rotate(%v) not applied", r)
		}
		after := selected(t, store)

		if after.Transform.X != before.Transform.X || after.Transform.Y != before.Transform.Y ||
			after.Transform.ScaleX != before.Transform.ScaleX || after.Transform.ScaleY != before.Transform.ScaleY {
			t.Errorf("rotate %v changed more than rotation: %+v -> %+v", r, before.Transform, after.Transform)
		}
		assertNear(t, "rotation", after.Transform.Rotation, scene.NormalizeDegrees(r))
	}
}

func TestRotateBy(t *testing.T) {
	store, c, _ := setup(t, Options{})
	store.AddElement(scene.KindText, "", scene.Patch{Rotation: scene.Ptr(350.0)})

	c.RotateBy(20)
	assertNear(t, "rotation", selected(t, store).Transform.Rotation, 10)
}

func TestScaleAspectLock(t *testing.T) {
	tests := []struct {
		kind   scene.Kind
		sx, sy float64
		wantSX float64
		wantSY float64
	}{
		{scene.KindImage, 2, 1.2, 2, 2},
		{scene.KindShape, 1.1, 0.5, 0.5, 0.5},
		{scene.KindEmoji, 1, 3, 3, 3},
		{scene.KindText, 2, 1.2, 2, 1.2},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			store, c, _ := setup(t, Options{})
			store.AddElement(tt.kind, "x", scene.Patch{})

			c.Scale(scene.Transform{ScaleX: tt.sx, ScaleY: tt.sy}, AnchorCenter)
			tr := selected(t, store).Transform
			assertNear(t, "sx", tr.ScaleX, tt.wantSX)
			assertNear(t, "sy", tr.ScaleY, tt.wantSY)
		})
	}
}

func TestScaleKeepsAnchorFixed(t *testing.T) {
	anchors := []Anchor{AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight, AnchorCenter}
	for _, a := range anchors {
		t.Run(string(a), func(t *testing.T) {
			store, c, _ := setup(t, Options{})
			store.AddElement(scene.KindText, "", scene.Patch{Rotation: scene.Ptr(30.0), X: scene.Ptr(100.0), Y: scene.Ptr(200.0)})
			e := selected(t, store)
			lx, ly := a.point(e.Size.Width, e.Size.Height)
			wantX, wantY := e.Matrix().TransformPoint(lx, ly)

			c.Scale(scene.Transform{ScaleX: 1.8, ScaleY: 0.7}, a)
			after := selected(t, store)
			gotX, gotY := after.Matrix().TransformPoint(lx, ly)

			assertNear(t, "anchor x", gotX, wantX)
			assertNear(t, "anchor y", gotY, wantY)
			assertNear(t, "rotation", after.Transform.Rotation, 30)
		})
	}
}

func TestScaleLimits(t *testing.T) {
	store, c, _ := setup(t, Options{MinScale: 0.5, MaxScale: 3})
	store.AddElement(scene.KindText, "", scene.Patch{})

	c.Scale(scene.Transform{ScaleX: 0.01, ScaleY: 50}, AnchorCenter)
	tr := selected(t, store).Transform
	if tr.ScaleX != 0.5 || tr.ScaleY != 3 {
		t.Errorf("scale = (%v, %v), want (0.5, 3)", tr.ScaleX, tr.ScaleY)
	}
	if c.Scale(scene.Transform{ScaleX: 0, ScaleY: 1}, AnchorCenter) {
		t.Error("zero scale accepted")
	}
}

func TestPinch(t *testing.T) {
	store, c, _ := setup(t, Options{})
	store.AddElement(scene.KindImage, "data:,", scene.Patch{})
	before := selected(t, store)
	cx, cy := boxCenter(before.Bounds())

	c.Pinch(Pinch{ScaleDelta: 0.5, RotDelta: -90})
	after := selected(t, store)
	assertNear(t, "sx", after.Transform.ScaleX, 1.5)
	assertNear(t, "sy", after.Transform.ScaleY, 1.5)
	assertNear(t, "rotation", after.Transform.Rotation, 270)

	ax, ay := boxCenter(after.Bounds())
	assertNear(t, "center x", ax, cx)
	assertNear(t, "center y", ay, cy)

	if c.Pinch(Pinch{ScaleDelta: -1}) {
		t.Error("collapsing pinch accepted")
	}
}

func TestGestureCoalescesIntoOneUndoStep(t *testing.T) {
	store, c, clock := setup(t, Options{Window: 80 * time.Millisecond})
	store.AddElement(scene.KindShape, "", scene.Patch{X: scene.Ptr(0.0), Y: scene.Ptr(0.0)})

	for range 10 {
		c.DragDelta(1, 1)
		clock.Advance(20 * time.Millisecond)
	}
	if !c.Pending() {
		t.Fatal("steps committed before the gesture rested")
	}

	clock.Advance(80 * time.Millisecond)
	if c.Pending() {
		t.Fatal("window elapsed but nothing committed")
	}

	store.Undo()
	tr := selected(t, store).Transform
	if tr.X != 0 || tr.Y != 0 {
		t.Errorf("one undo left (%v, %v), want the pre-drag position", tr.X, tr.Y)
	}
	store.Redo()
	if tr := selected(t, store).Transform; tr.X != 10 || tr.Y != 10 {
		t.Errorf("redo = (%v, %v), want (10, 10)", tr.X, tr.Y)
	}
}

func TestEndFlushesImmediately(t *testing.T) {
	store, c, clock := setup(t, Options{})
	store.AddElement(scene.KindEmoji, "", scene.Patch{})

	c.RotateBy(15)
	c.RotateBy(15)
	if !c.End() {
		t.Fatal("End committed nothing")
	}
	if c.End() {
		t.Error("second End committed again")
	}

	// The stale timer must not write another entry.
	v := store.Version()
	clock.Advance(time.Second)
	if store.Version() != v {
		t.Error("timer fired after End")
	}

	store.Undo()
	assertNear(t, "rotation", selected(t, store).Transform.Rotation, 0)
}

func TestSeparateGesturesAreSeparateSteps(t *testing.T) {
	store, c, clock := setup(t, Options{})
	store.AddElement(scene.KindShape, "", scene.Patch{X: scene.Ptr(0.0), Y: scene.Ptr(0.0)})

	c.DragDelta(10, 0)
	clock.Advance(100 * time.Millisecond)
	c.DragDelta(10, 0)
	clock.Advance(100 * time.Millisecond)

	store.Undo()
	if x := selected(t, store).Transform.X; x != 10 {
		t.Errorf("after one undo x = %v, want 10", x)
	}
}

func TestParseAnchor(t *testing.T) {
	if ParseAnchor("bottomRight") != AnchorBottomRight {
		t.Error("bottomRight not parsed")
	}
	if ParseAnchor("sideways") != AnchorCenter {
		t.Error("unknown anchor should be center")
	}
}
