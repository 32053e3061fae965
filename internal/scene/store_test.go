package scene

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// seqIDs returns an id generator producing t1, t2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

func newTestStore() *Store {
	return NewStore(Options{NewID: seqIDs()})
}

func boxCenter(r Rect) (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

func mustElement(t *testing.T, s *Store, id string) Element {
	t.Helper()
	e, err := s.Element(id)
	if err != nil {
		t.Fatalf("Element(%q): %v", id, err)
	}
	return e
}

func zOrder(s *Store) []string {
	var ids []string
	for _, e := range s.Elements() {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestEndToEndScenario(t *testing.T) {
	s := newTestStore()

	t1 := s.AddElement(KindText, "Hello", Patch{})
	if t1 != "t1" {
		t.Fatalf("first id = %q, want t1", t1)
	}
	if s.Len() != 1 || mustElement(t, s, t1).ZIndex != 1 || s.SelectedID() != t1 {
		t.Fatalf("after first add: len=%d z=%d selected=%q", s.Len(), mustElement(t, s, t1).ZIndex, s.SelectedID())
	}

	t2 := s.AddElement(KindImage, "data:image/png;base64,AAAA", Patch{})
	if t2 != "t2" {
		t.Fatalf("second id = %q, want t2", t2)
	}
	if s.Len() != 2 || mustElement(t, s, t2).ZIndex != 2 || s.SelectedID() != t2 {
		t.Fatalf("after second add: len=%d z=%d selected=%q", s.Len(), mustElement(t, s, t2).ZIndex, s.SelectedID())
	}

	s.Select(t1)
	if z := mustElement(t, s, t1).ZIndex; z != 3 {
		t.Errorf("t1.zIndex = %d, want 3", z)
	}
	if z := mustElement(t, s, t2).ZIndex; z != 2 {
		t.Errorf("t2.zIndex = %d, want 2", z)
	}
	if s.SelectedID() != t1 {
		t.Errorf("selected = %q, want t1", s.SelectedID())
	}

	s.DeleteElement(t2)
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
	if s.SelectedID() != t1 {
		t.Errorf("selected = %q, want t1 (deleted element was not selected)", s.SelectedID())
	}
}

func TestAddElementDefaults(t *testing.T) {
	tests := []struct {
		kind    Kind
		content string
		check   func(t *testing.T, e Element)
	}{
		{KindText, "", func(t *testing.T, e Element) {
			if e.Content != DefaultText {
				t.Errorf("content = %q, want placeholder", e.Content)
			}
			if e.Style.Color != darkInk {
				t.Errorf("color = %q, want %q on white paper", e.Style.Color, darkInk)
			}
			if e.Size.FontSize <= 0 {
				t.Errorf("font size = %v, want > 0", e.Size.FontSize)
			}
		}},
		{KindImage, "data:image/png;base64,AAAA", func(t *testing.T, e Element) {
			if e.Size.Width != defaultImageSide || e.Size.Height != defaultImageSide {
				t.Errorf("size = %+v, want %vx%v", e.Size, defaultImageSide, defaultImageSide)
			}
		}},
		{KindShape, "", func(t *testing.T, e Element) {
			if e.Content != DefaultShapeID || e.Style.Fill != DefaultShapeFill {
				t.Errorf("shape defaults = %q/%q", e.Content, e.Style.Fill)
			}
		}},
		{KindEmoji, "🔥", func(t *testing.T, e Element) {
			if e.Content != "🔥" {
				t.Errorf("content = %q", e.Content)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := newTestStore()
			id := s.AddElement(tt.kind, tt.content, Patch{})
			e := mustElement(t, s, id)
			if e.Transform.ScaleX != 1 || e.Transform.ScaleY != 1 || e.Style.Opacity != 1 {
				t.Errorf("transform/opacity defaults wrong: %+v %v", e.Transform, e.Style.Opacity)
			}
			cx, cy := boxCenter(e.Bounds())
			if cx != DefaultFrameWidth/2 || cy != DefaultFrameHeight/2 {
				t.Errorf("center = (%v, %v), want frame center", cx, cy)
			}
			tt.check(t, e)
		})
	}
}

func TestAddTextContrastsDarkBackdrop(t *testing.T) {
	s := newTestStore()
	s.SetFrame(Frame{PaperKey: "dark", BorderKey: "none"}, "#0f0f0f")
	id := s.AddElement(KindText, "", Patch{})
	if c := mustElement(t, s, id).Style.Color; c != lightInk {
		t.Errorf("color = %q, want %q on dark paper", c, lightInk)
	}
}

func TestAddElementOverrides(t *testing.T) {
	s := newTestStore()
	id := s.AddElement(KindText, "hi", Patch{Color: Ptr("#ff0000"), Bold: Ptr(true), X: Ptr(10.0)})
	e := mustElement(t, s, id)
	if e.Style.Color != "#ff0000" || !e.Style.Bold || e.Transform.X != 10 {
		t.Errorf("overrides not applied: %+v", e)
	}
}

func TestSelectPromotesZOrder(t *testing.T) {
	s := newTestStore()
	a := s.AddElement(KindShape, "", Patch{})
	b := s.AddElement(KindShape, "", Patch{})
	c := s.AddElement(KindShape, "", Patch{})
	d := s.AddElement(KindShape, "", Patch{})

	s.Select(b)

	want := []string{a, c, d, b}
	if diff := cmp.Diff(want, zOrder(s)); diff != "" {
		t.Errorf("z order mismatch (-want +got):\n%s", diff)
	}
	eb := mustElement(t, s, b)
	for _, other := range []string{a, c, d} {
		if mustElement(t, s, other).ZIndex >= eb.ZIndex {
			t.Errorf("%s not below selected element", other)
		}
	}
}

func TestSelectTopElementKeepsZ(t *testing.T) {
	s := newTestStore()
	s.AddElement(KindShape, "", Patch{})
	b := s.AddElement(KindShape, "", Patch{})
	s.Deselect()

	s.Select(b)
	if z := mustElement(t, s, b).ZIndex; z != 2 {
		t.Errorf("z = %d, want 2 (already on top)", z)
	}
	if s.SelectedID() != b {
		t.Errorf("selected = %q, want %q", s.SelectedID(), b)
	}
}

func TestSelectMissingIsNoop(t *testing.T) {
	s := newTestStore()
	a := s.AddElement(KindShape, "", Patch{})
	before := s.Elements()

	if s.Select("nope") {
		t.Error("Select(missing) = true")
	}
	if s.SelectedID() != a {
		t.Errorf("selected = %q, want %q", s.SelectedID(), a)
	}
	if diff := cmp.Diff(before, s.Elements(), cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("elements changed:\n%s", diff)
	}
}

func TestUpdateIsScopedAndPartial(t *testing.T) {
	s := newTestStore()
	a := s.AddElement(KindText, "one", Patch{})
	b := s.AddElement(KindText, "two", Patch{})

	beforeA := mustElement(t, s, a)
	beforeB := mustElement(t, s, b)

	if !s.UpdateElement(a, Patch{Color: Ptr("#123456")}) {
		t.Fatal("UpdateElement returned false")
	}

	wantA := beforeA
	wantA.Style.Color = "#123456"
	if diff := cmp.Diff(wantA, mustElement(t, s, a), cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("updated element mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(beforeB, mustElement(t, s, b), cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("other element changed (-want +got):\n%s", diff)
	}
}

func TestUpdateMissingIsSilent(t *testing.T) {
	s := newTestStore()
	s.AddElement(KindText, "one", Patch{})
	before := s.Elements()

	if s.UpdateElement("ghost", Patch{Color: Ptr("red")}) {
		t.Error("UpdateElement(missing) = true")
	}
	if diff := cmp.Diff(before, s.Elements(), cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("scene changed:\n%s", diff)
	}
}

func TestUpdateIgnoresInvalidValues(t *testing.T) {
	s := newTestStore()
	id := s.AddElement(KindImage, "x", Patch{})
	before := mustElement(t, s, id)

	s.UpdateElement(id, Patch{Width: Ptr(-5.0), Height: Ptr(0.0), ScaleX: Ptr(0.0), Rotation: Ptr(-90.0), Opacity: Ptr(3.0)})

	e := mustElement(t, s, id)
	if e.Size != before.Size {
		t.Errorf("size = %+v, want unchanged %+v", e.Size, before.Size)
	}
	if e.Transform.ScaleX != 1 {
		t.Errorf("scaleX = %v, want 1", e.Transform.ScaleX)
	}
	if e.Transform.Rotation != 270 {
		t.Errorf("rotation = %v, want 270", e.Transform.Rotation)
	}
	if e.Style.Opacity != 1 {
		t.Errorf("opacity = %v, want clamped to 1", e.Style.Opacity)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore()
	s.AddElement(KindShape, "", Patch{})
	b := s.AddElement(KindShape, "", Patch{})

	if !s.DeleteElement(b) {
		t.Fatal("first delete returned false")
	}
	once := s.Elements()
	onceSel := s.SelectedID()

	if s.DeleteElement(b) {
		t.Error("second delete returned true")
	}
	if diff := cmp.Diff(once, s.Elements(), cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("second delete changed the scene:\n%s", diff)
	}
	if s.SelectedID() != onceSel || onceSel != "" {
		t.Errorf("selection = %q, want cleared", s.SelectedID())
	}
}

func TestReorderRenumbersDensely(t *testing.T) {
	// Starting order, bottom to top, is 0 2 3 1 with zIndex 1 3 4 5.
	tests := []struct {
		name     string
		from, to int
		want     []int // indexes into the added ids, bottom to top
	}{
		{"bottom to top", 0, 3, []int{2, 3, 1, 0}},
		{"top to bottom", 3, 0, []int{1, 0, 2, 3}},
		{"middle down", 2, 1, []int{0, 3, 2, 1}},
		{"same rank", 1, 1, []int{0, 2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			var ids []string
			for i := 0; i < 4; i++ {
				ids = append(ids, s.AddElement(KindShape, "", Patch{}))
			}
			s.Select(ids[1])

			if !s.Reorder(tt.from, tt.to) {
				t.Fatal("Reorder returned false")
			}

			var want []string
			for _, i := range tt.want {
				want = append(want, ids[i])
			}
			if diff := cmp.Diff(want, zOrder(s)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			for rank, e := range s.Elements() {
				if e.ZIndex != rank+1 {
					t.Errorf("rank %d has zIndex %d, want %d", rank, e.ZIndex, rank+1)
				}
			}
		})
	}
}

func TestReorderOutOfRange(t *testing.T) {
	s := newTestStore()
	s.AddElement(KindShape, "", Patch{})
	s.AddElement(KindShape, "", Patch{})
	before := zOrder(s)

	for _, r := range [][2]int{{-1, 0}, {0, 2}, {5, 1}} {
		if s.Reorder(r[0], r[1]) {
			t.Errorf("Reorder(%d, %d) = true", r[0], r[1])
		}
	}
	if diff := cmp.Diff(before, zOrder(s)); diff != "" {
		t.Errorf("order changed:\n%s", diff)
	}
}

// Reorder does not re-promote the selection; the next Select does.
func TestReorderThenSelectInterleaving(t *testing.T) {
	s := newTestStore()
	a := s.AddElement(KindShape, "", Patch{})
	b := s.AddElement(KindShape, "", Patch{})
	c := s.AddElement(KindShape, "", Patch{})

	s.Select(a)     // a on top: b c a
	s.Reorder(0, 2) // b moves to top: c a b
	if s.SelectedID() != a {
		t.Fatalf("selection = %q, want %q", s.SelectedID(), a)
	}
	if diff := cmp.Diff([]string{c, a, b}, zOrder(s)); diff != "" {
		t.Errorf("after reorder (-want +got):\n%s", diff)
	}

	s.Select(a)
	if diff := cmp.Diff([]string{c, b, a}, zOrder(s)); diff != "" {
		t.Errorf("after reselect (-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore()
	s.AddElement(KindShape, "", Patch{})
	s.AddElement(KindText, "", Patch{})
	s.Clear()

	if s.Len() != 0 || s.SelectedID() != "" {
		t.Errorf("after clear: len=%d selected=%q", s.Len(), s.SelectedID())
	}
	if !s.Undo() || s.Len() != 2 {
		t.Errorf("undo of clear restored %d elements, want 2", s.Len())
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestStore()

	a := s.AddElement(KindText, "one", Patch{}) // op1
	afterOp1 := s.Elements()
	s.UpdateElement(a, Patch{Color: Ptr("#00ff00")}) // op2
	s.AddElement(KindShape, "", Patch{})             // op3
	afterOp3 := s.Elements()

	if !s.Undo() || !s.Undo() {
		t.Fatal("undo failed")
	}
	if diff := cmp.Diff(afterOp1, s.Elements(), cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("after undo x2 (-want +got):\n%s", diff)
	}

	if !s.Redo() || !s.Redo() {
		t.Fatal("redo failed")
	}
	if diff := cmp.Diff(afterOp3, s.Elements(), cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("after redo x2 (-want +got):\n%s", diff)
	}
	if s.Redo() {
		t.Error("redo past the end succeeded")
	}
}

func TestEditAfterUndoDropsRedoTail(t *testing.T) {
	s := newTestStore()
	a := s.AddElement(KindText, "one", Patch{})
	s.UpdateElement(a, Patch{Color: Ptr("#111111")})
	s.Undo()
	s.UpdateElement(a, Patch{Color: Ptr("#222222")})

	if s.CanRedo() {
		t.Error("redo still available after a new edit")
	}
	s.Undo()
	if c := mustElement(t, s, a).Style.Color; c != darkInk {
		t.Errorf("color = %q, want original %q", c, darkInk)
	}
}

func TestUndoClearsStaleSelection(t *testing.T) {
	s := newTestStore()
	s.AddElement(KindText, "one", Patch{})
	b := s.AddElement(KindText, "two", Patch{})
	if s.SelectedID() != b {
		t.Fatalf("selected = %q", s.SelectedID())
	}
	s.Undo()
	if s.SelectedID() != "" {
		t.Errorf("selected = %q, want cleared after undoing its creation", s.SelectedID())
	}
}

func TestPreviewCoalescesIntoOneEntry(t *testing.T) {
	s := newTestStore()
	id := s.AddElement(KindShape, "", Patch{})
	start := mustElement(t, s, id).Transform

	for i := 1; i <= 10; i++ {
		s.PreviewSelected(func(Element) (Patch, bool) {
			return Patch{X: Ptr(start.X + float64(i))}, true
		})
	}
	if !s.Commit() {
		t.Fatal("Commit reported nothing pending")
	}
	if s.Commit() {
		t.Error("second Commit reported pending edits")
	}

	s.Undo()
	if got := mustElement(t, s, id).Transform; got != start {
		t.Errorf("one undo should revert the whole drag: got %+v want %+v", got, start)
	}
}

func TestPreviewSelectedSkips(t *testing.T) {
	s := newTestStore()
	id := s.AddElement(KindShape, "", Patch{})

	if _, ok := s.PreviewSelected(func(Element) (Patch, bool) { return Patch{}, false }); ok {
		t.Error("declined edit reported as applied")
	}
	s.Deselect()
	v := s.Version()
	called := false
	if _, ok := s.PreviewSelected(func(Element) (Patch, bool) { called = true; return Patch{}, true }); ok || called {
		t.Errorf("edit without selection: ok = %v, fn called = %v", ok, called)
	}
	if s.Version() != v || s.Commit() {
		t.Error("skipped edits changed the store")
	}

	s.Select(id)
	got, ok := s.PreviewSelected(func(e Element) (Patch, bool) { return Patch{X: Ptr(e.Transform.X + 1)}, true })
	if !ok || got != id {
		t.Errorf("PreviewSelected = %q, %v; want %q, true", got, ok, id)
	}
}

func TestUndoCommitsPendingPreview(t *testing.T) {
	s := newTestStore()
	id := s.AddElement(KindShape, "", Patch{})
	x := mustElement(t, s, id).Transform.X

	s.PreviewSelected(func(Element) (Patch, bool) { return Patch{X: Ptr(x + 50)}, true })
	if !s.CanUndo() {
		t.Fatal("CanUndo false with pending preview")
	}
	s.Undo()
	if got := mustElement(t, s, id).Transform.X; got != x {
		t.Errorf("x = %v, want %v", got, x)
	}
	s.Redo()
	if got := mustElement(t, s, id).Transform.X; got != x+50 {
		t.Errorf("x after redo = %v, want %v", got, x+50)
	}
}

func TestHistoryDisabled(t *testing.T) {
	s := NewStore(Options{NewID: seqIDs(), HistoryLimit: -1})
	s.AddElement(KindText, "", Patch{})
	if s.Undo() || s.CanUndo() {
		t.Error("undo available with history disabled")
	}
}

func TestVersionAdvances(t *testing.T) {
	s := newTestStore()
	v0 := s.Version()
	id := s.AddElement(KindText, "", Patch{})
	v1 := s.Version()
	s.UpdateElement("missing", Patch{Color: Ptr("red")})
	if s.Version() != v1 {
		t.Error("version moved on a no-op update")
	}
	s.UpdateElement(id, Patch{Color: Ptr("red")})
	if !(v0 < v1 && v1 < s.Version()) {
		t.Errorf("versions not increasing: %d %d %d", v0, v1, s.Version())
	}
}
