package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/deylin/studio/internal/manip"
	"github.com/deylin/studio/internal/scene"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func noWait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestEngine(r Rasterizer) *Engine {
	return New(Options{
		NewID:  seqIDs(),
		Manip:  manip.Options{Window: time.Hour},
		Export: ExportOptions{Rasterizer: r, Wait: noWait},
	})
}

func ops(cmds []DrawCommand) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op
		if c.ElementID != "" {
			out[i] += ":" + c.ElementID
		}
	}
	return out
}

func TestRenderPainterOrder(t *testing.T) {
	e := newTestEngine(nil)
	e.SetFrame(scene.Frame{PaperKey: "notebook", BorderKey: "fire"})
	a := e.AddElement(scene.KindText, "hola", scene.Patch{})
	b := e.AddElement(scene.KindImage, "data:,", scene.Patch{Mask: scene.Ptr("heart")})
	c := e.AddElement(scene.KindShape, "star", scene.Patch{})
	e.Select(a)

	want := []string{
		"paper",
		"save", "clip:" + b, "image:" + b, "restore",
		"path:" + c,
		"text:" + a,
		"border",
	}
	if diff := cmp.Diff(want, ops(e.Render())); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderResolvesStyles(t *testing.T) {
	e := newTestEngine(nil)
	e.SetFrame(scene.Frame{PaperKey: "dark", BorderKey: "does-not-exist"})
	e.AddElement(scene.KindText, "", scene.Patch{FontFamily: scene.Ptr("mono")})
	e.AddElement(scene.KindShape, "blob", scene.Patch{})
	e.AddElement(scene.KindEmoji, "", scene.Patch{Opacity: scene.Ptr(0.0)})

	cmds := e.Render()
	if cmds[0].Fill != "#0f0f0f" || cmds[0].Paper.Key != "dark" {
		t.Errorf("paper = %+v", cmds[0])
	}
	// Unknown border falls back to none, which draws nothing.
	if len(cmds) != 3 {
		t.Fatalf("got %v, want paper + text + path", ops(cmds))
	}
	if cmds[1].Font != "'Courier New', monospace" || cmds[1].Fill != "#ffffff" {
		t.Errorf("text = font %q fill %q", cmds[1].Font, cmds[1].Fill)
	}
	if len(cmds[2].Path) == 0 {
		t.Error("unknown shape rendered without a path")
	}
}

func TestDrawCommandsToJSONEmpty(t *testing.T) {
	got, err := DrawCommandsToJSON(nil)
	if err != nil || got != "[]" {
		t.Errorf("DrawCommandsToJSON(nil) = %q, %v", got, err)
	}
}

func TestHitTestTopmostAndRotated(t *testing.T) {
	e := newTestEngine(nil)
	// Two squares stacked at the center of the card.
	a := e.AddElement(scene.KindShape, "square", scene.Patch{})
	b := e.AddElement(scene.KindShape, "square", scene.Patch{Rotation: scene.Ptr(45.0)})

	w, h := e.FrameSize()
	if got := e.HitTest(w/2, h/2); got != b {
		t.Errorf("center hit = %q, want top %q", got, b)
	}
	e.Select(a)
	if got := e.HitTest(w/2, h/2); got != a {
		t.Errorf("center hit after select = %q, want %q", got, a)
	}
	if got := e.HitTest(1, 1); got != "" {
		t.Errorf("corner hit = %q, want none", got)
	}

	// The rotated square's corner region outside a is b's only.
	e.Select(b)
	if got := e.HitTest(w/2, h/2-80); got != b {
		t.Errorf("rotated tip hit = %q, want %q", got, b)
	}
}

func TestSelectionBounds(t *testing.T) {
	e := newTestEngine(nil)
	if !e.SelectionBounds().IsEmpty() {
		t.Error("bounds without selection should be empty")
	}
	e.AddElement(scene.KindShape, "", scene.Patch{X: scene.Ptr(10.0), Y: scene.Ptr(20.0), ScaleX: scene.Ptr(2.0), ScaleY: scene.Ptr(2.0)})

	want := scene.Rect{X: -50, Y: -40, Width: 240, Height: 240}
	if diff := cmp.Diff(want, e.SelectionBounds()); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}
}

func TestGestures(t *testing.T) {
	e := newTestEngine(nil)
	id := e.AddElement(scene.KindEmoji, "", scene.Patch{X: scene.Ptr(0.0), Y: scene.Ptr(0.0)})

	steps := []Gesture{
		{Type: GestureDrag, DX: 10, DY: 5},
		{Type: GestureRotate, Delta: 90},
		{Type: GesturePinch, ScaleDelta: 1},
		{Type: GestureEnd},
	}
	for _, g := range steps {
		if ok, err := e.ApplyGesture(g); err != nil || !ok {
			t.Fatalf("ApplyGesture(%+v) = %v, %v", g, ok, err)
		}
	}

	el, _ := e.Store().Element(id)
	want := scene.Transform{X: 10, Y: 5, Rotation: 90, ScaleX: 2, ScaleY: 2}
	if el.Transform != want {
		t.Errorf("transform = %+v, want %+v", el.Transform, want)
	}

	// One gesture, one undo step.
	e.Undo()
	el, _ = e.Store().Element(id)
	if el.Transform != scene.IdentityTransform() {
		t.Errorf("after undo = %+v", el.Transform)
	}

	if _, err := e.ApplyGesture(Gesture{Type: "wiggle"}); !errors.Is(err, ErrUnknownGesture) {
		t.Errorf("unknown gesture err = %v", err)
	}
	if _, err := e.ApplyGesture(Gesture{Type: GestureScale}); !errors.Is(err, ErrUnknownGesture) {
		t.Errorf("scale without transform err = %v", err)
	}
}

func TestConcurrentDragGesturesAreLinearizable(t *testing.T) {
	e := newTestEngine(nil)
	id := e.AddElement(scene.KindShape, "", scene.Patch{X: scene.Ptr(0.0), Y: scene.Ptr(0.0)})

	const workers, steps = 8, 2000
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range steps {
				e.ApplyGesture(Gesture{Type: GestureDrag, DX: 0.5})
			}
		}()
	}
	wg.Wait()
	e.ApplyGesture(Gesture{Type: GestureEnd})

	el, _ := e.Store().Element(id)
	if el.Transform.X != workers*steps*0.5 {
		t.Errorf("moved %v, want %v", el.Transform.X, workers*steps*0.5)
	}
}

func TestEditsFlushPendingGesture(t *testing.T) {
	e := newTestEngine(nil)
	id := e.AddElement(scene.KindShape, "", scene.Patch{X: scene.Ptr(0.0)})
	e.ApplyGesture(Gesture{Type: GestureDrag, DX: 50})
	e.UpdateElement(id, scene.Patch{Fill: scene.Ptr("#000000")})

	e.Undo()
	el, _ := e.Store().Element(id)
	if el.Style.Fill != scene.DefaultShapeFill || el.Transform.X != 50 {
		t.Errorf("undo should revert only the fill: %+v %+v", el.Style, el.Transform)
	}
}

func TestSerializeRestore(t *testing.T) {
	e := newTestEngine(nil)
	e.SetFrame(scene.Frame{PaperKey: "midnight", BorderKey: "chrome"})
	e.AddElement(scene.KindText, "hola", scene.Patch{})
	data, err := e.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	other := newTestEngine(nil)
	other.Restore(data)
	if diff := cmp.Diff(e.RenderJSON(), other.RenderJSON()); diff != "" {
		t.Errorf("restored render differs (-want +got):\n%s", diff)
	}
	if other.Store().CanUndo() {
		t.Error("restore left undo history")
	}

	// New text on the restored dark card is light.
	id := other.AddElement(scene.KindText, "", scene.Patch{})
	el, _ := other.Store().Element(id)
	if el.Style.Color != "#ffffff" {
		t.Errorf("text color = %q, want #ffffff", el.Style.Color)
	}
}

func TestParseAspect(t *testing.T) {
	a, err := ParseAspect("9:16")
	if err != nil || a != Aspect9x16 {
		t.Fatalf("ParseAspect = %q, %v", a, err)
	}
	w, h := a.FrameSize()
	if math.Abs(h/w-16.0/9.0) > 1e-9 {
		t.Errorf("9:16 frame = %vx%v", w, h)
	}
	if _, err := ParseAspect("1:1"); !errors.Is(err, ErrInvalidAspect) {
		t.Errorf("err = %v", err)
	}
	if a, _ := ParseAspect(""); a != Aspect3x4 {
		t.Errorf("default aspect = %q", a)
	}
}

type rasterFunc func(ctx context.Context, c Canvas, ratio float64) ([]byte, error)

func (f rasterFunc) Rasterize(ctx context.Context, c Canvas, ratio float64) ([]byte, error) {
	return f(ctx, c, ratio)
}

func TestExportClearsSelection(t *testing.T) {
	var got Canvas
	var ratio float64
	e := newTestEngine(rasterFunc(func(_ context.Context, c Canvas, r float64) ([]byte, error) {
		got, ratio = c, r
		return []byte("png"), nil
	}))
	e.AddElement(scene.KindText, "", scene.Patch{})

	data, err := e.Export(context.Background())
	if err != nil || string(data) != "png" {
		t.Fatalf("Export = %q, %v", data, err)
	}
	if e.Store().SelectedID() != "" {
		t.Error("selection kept during export")
	}
	if got.Width != scene.DefaultFrameWidth || got.Height != scene.DefaultFrameHeight || len(got.Commands) != 2 {
		t.Errorf("canvas = %vx%v with %d commands", got.Width, got.Height, len(got.Commands))
	}
	if ratio != DefaultPixelRatio {
		t.Errorf("pixel ratio = %v", ratio)
	}
}

func TestExportFailureIsRetryable(t *testing.T) {
	fail := true
	e := newTestEngine(rasterFunc(func(context.Context, Canvas, float64) ([]byte, error) {
		if fail {
			return nil, errors.New("tainted canvas")
		}
		return []byte("ok"), nil
	}))
	id := e.AddElement(scene.KindImage, "https://elsewhere/cat.png", scene.Patch{})
	before := e.Store().Elements()

	_, err := e.Export(context.Background())
	if !errors.Is(err, ErrExportFailed) {
		t.Fatalf("err = %v, want ErrExportFailed", err)
	}
	if e.Exporting() {
		t.Fatal("busy flag stuck after failure")
	}
	if diff := cmp.Diff(before, e.Store().Elements(), cmp.AllowUnexported(scene.Element{})); diff != "" {
		t.Errorf("failed export changed the scene (-before +after):\n%s", diff)
	}
	if _, err := e.Store().Element(id); err != nil {
		t.Error(err)
	}

	fail = false
	if _, err := e.Export(context.Background()); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestExportRejectsReentry(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	e := newTestEngine(rasterFunc(func(context.Context, Canvas, float64) ([]byte, error) {
		close(started)
		<-release
		return []byte("png"), nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := e.Export(context.Background()); err != nil {
			t.Errorf("first export: %v", err)
		}
	}()

	<-started
	if _, err := e.Export(context.Background()); !errors.Is(err, ErrExportBusy) {
		t.Errorf("second export err = %v, want ErrExportBusy", err)
	}
	close(release)
	wg.Wait()

	if e.Exporting() {
		t.Error("busy flag not released")
	}
}

func TestExportHonorsContext(t *testing.T) {
	e := New(Options{Export: ExportOptions{
		Rasterizer: rasterFunc(func(context.Context, Canvas, float64) ([]byte, error) { return nil, nil }),
		Settle:     time.Hour,
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Export(ctx)
	if !errors.Is(err, ErrExportFailed) || !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestExportWithoutRasterizer(t *testing.T) {
	e := newTestEngine(nil)
	if _, err := e.Export(context.Background()); !errors.Is(err, ErrExportFailed) {
		t.Errorf("err = %v", err)
	}
}

func TestClampPixelRatio(t *testing.T) {
	tests := []struct{ in, want float64 }{{0, 2}, {1, 2}, {2.5, 2.5}, {9, 3.2}}
	for _, tt := range tests {
		if got := ClampPixelRatio(tt.in); got != tt.want {
			t.Errorf("ClampPixelRatio(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
