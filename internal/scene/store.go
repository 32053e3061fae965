package scene

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/deylin/studio/internal/typeid"
)

const (
	DefaultPaperKey  = "classic"
	DefaultBorderKey = "none"

	// DefaultFrameWidth and DefaultFrameHeight give the 3:4 card in CSS pixels.
	DefaultFrameWidth  = 600
	DefaultFrameHeight = 800
)

// Frame is the styled card the elements sit on.
type Frame struct {
	PaperKey        string `json:"paperKey"`
	BorderKey       string `json:"borderKey"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// DefaultFrame returns the plain white card.
func DefaultFrame() Frame {
	return Frame{PaperKey: DefaultPaperKey, BorderKey: DefaultBorderKey}
}

type Options struct {
	// FrameWidth and FrameHeight size the card new elements are centered in.
	FrameWidth  float64
	FrameHeight float64

	// HistoryLimit bounds undo entries. Negative disables history.
	HistoryLimit int

	// NewID generates element ids. Defaults to typeid "el_..." ids.
	NewID func() string
}

// Store is the single source of truth for the elements on the card and the
// current selection. All methods are safe for concurrent use; every mutation
// is serialized through one mutex so updates are linearizable.
type Store struct {
	mu sync.Mutex

	elements   map[string]Element
	selectedID string
	seq        uint64

	frame    Frame
	backdrop string // effective background color, for text contrast

	history *History
	pending bool // uncommitted preview edits

	// version increments on every visible change.
	version uint64

	frameW, frameH float64
	newID          func() string
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	s := &Store{
		elements: make(map[string]Element),
		frame:    DefaultFrame(),
		backdrop: "#ffffff",
		frameW:   opts.FrameWidth,
		frameH:   opts.FrameHeight,
		newID:    opts.NewID,
	}
	if s.frameW <= 0 {
		s.frameW = DefaultFrameWidth
	}
	if s.frameH <= 0 {
		s.frameH = DefaultFrameHeight
	}
	if s.newID == nil {
		s.newID = typeid.NewElementID
	}
	if opts.HistoryLimit >= 0 {
		s.history = NewHistory(opts.HistoryLimit, nil)
	}
	return s
}

// --- Mutations ---

// AddElement creates an element of kind k with defaults, applies overrides,
// places it on top and selects it. It returns the new id.
func (s *Store) AddElement(k Kind, content string, overrides Patch) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, exists := s.elements[id]; exists; _, exists = s.elements[id] {
		id = s.newID()
	}

	e := newElement(id, k, content, s.frameW, s.frameH, ContrastColor(s.backdrop))
	e = overrides.Apply(e)
	e.ZIndex = s.maxZLocked() + 1
	s.seq++
	e.seq = s.seq

	s.elements[id] = e
	s.selectedID = id
	s.commitLocked()
	return id
}

// UpdateElement replaces the patched fields of element id and records a
// history entry. It reports whether the element existed; a missing id is a
// silent no-op because gesture updates may race a delete.
func (s *Store) UpdateElement(id string, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.patchLocked(id, p) {
		return false
	}
	s.commitLocked()
	return true
}

// PreviewSelected applies the patch fn derives from the selected element
// without recording history. The change is folded into the next entry
// written by Commit or any committing mutation. The read, fn and the write
// happen under one lock, so concurrent callers each see the previous
// caller's result. fn returning false skips the edit.
func (s *Store) PreviewSelected(fn func(Element) (Patch, bool)) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.elements[s.selectedID]
	if !ok {
		return "", false
	}
	p, ok := fn(e)
	if !ok {
		return "", false
	}
	s.elements[e.ID] = p.Apply(e)
	s.version++
	s.pending = true
	return e.ID, true
}

// Commit records pending preview edits as one history entry. It reports
// whether anything was pending.
func (s *Store) Commit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return false
	}
	s.commitLocked()
	return true
}

// DeleteElement removes element id, clearing the selection if it pointed at
// it. Deleting a missing id does nothing.
func (s *Store) DeleteElement(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elements[id]; !ok {
		slog.Debug("delete of missing element ignored", "id", id)
		return false
	}
	delete(s.elements, id)
	if s.selectedID == id {
		s.selectedID = ""
	}
	s.commitLocked()
	return true
}

// Select marks element id as selected and lifts it above every other
// element. Selecting a missing id does nothing.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.elements[id]
	if !ok {
		slog.Debug("select of missing element ignored", "id", id)
		return false
	}
	s.selectedID = id
	s.version++

	if s.isUniqueTopLocked(e) {
		return true
	}
	e.ZIndex = s.maxZLocked() + 1
	s.elements[id] = e
	s.commitLocked()
	return true
}

// Deselect clears the selection.
func (s *Store) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID != "" {
		s.selectedID = ""
		s.version++
	}
}

// Reorder moves the element at z-rank from to z-rank to (0 is the bottom)
// and renumbers every zIndex densely from 1. The selection is left alone, so
// the selected element may end up below others until it is selected again.
// Out-of-range ranks are ignored.
func (s *Store) Reorder(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := s.orderedLocked()
	n := len(ordered)
	if from < 0 || from >= n || to < 0 || to >= n {
		slog.Debug("reorder out of range ignored", "from", from, "to", to, "len", n)
		return false
	}

	moved := ordered[from]
	ordered = append(ordered[:from], ordered[from+1:]...)
	ordered = append(ordered[:to], append([]Element{moved}, ordered[to:]...)...)

	for i, e := range ordered {
		e.ZIndex = i + 1
		s.elements[e.ID] = e
	}
	s.commitLocked()
	return true
}

// Clear removes every element and the selection. It is undoable.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elements = make(map[string]Element)
	s.selectedID = ""
	s.commitLocked()
}

// Undo restores the previous history entry.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history == nil {
		return false
	}
	if s.pending {
		s.commitLocked()
	}
	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restoreLocked(snap)
	return true
}

// Redo re-applies the next history entry.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history == nil || s.pending {
		return false
	}
	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restoreLocked(snap)
	return true
}

// SetFrame changes the card style. backdrop is the resolved background
// color used to pick a legible color for new text. Frame changes are not
// part of the undo history.
func (s *Store) SetFrame(f Frame, backdrop string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = f
	if backdrop != "" {
		s.backdrop = backdrop
	}
	s.version++
}

// Load replaces the whole scene with doc and restarts the history from it.
func (s *Store) Load(doc Document, backdrop string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elements = make(map[string]Element, len(doc.Elements))
	for _, e := range doc.Elements {
		s.seq++
		e.seq = s.seq
		s.elements[e.ID] = e
	}
	s.selectedID = ""
	s.frame = doc.Frame
	if backdrop != "" {
		s.backdrop = backdrop
	}
	s.pending = false
	if s.history != nil {
		s.history.Reset(s.orderedLocked())
	}
	s.version++
}

// --- Queries ---

// Elements returns all elements in render order: zIndex ascending, ties by
// insertion order.
func (s *Store) Elements() []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked()
}

// Element returns element id.
func (s *Store) Element(id string) (Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.elements[id]
	if !ok {
		return Element{}, ErrNotFound
	}
	return e, nil
}

// Selected returns the selected element, if any.
func (s *Store) Selected() (Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.elements[s.selectedID]
	return e, ok
}

func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elements)
}

func (s *Store) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// FrameSize returns the card size in CSS pixels.
func (s *Store) FrameSize() (float64, float64) {
	return s.frameW, s.frameH
}

// Version increases on every visible change; hosts compare it to decide
// whether a snapshot is due.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history != nil && (s.pending || s.history.CanUndo())
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history != nil && !s.pending && s.history.CanRedo()
}

// Document returns the persistable form of the scene.
func (s *Store) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Document{Elements: s.orderedLocked(), Frame: s.frame}
}

// --- Internals (caller holds mu) ---

func (s *Store) patchLocked(id string, p Patch) bool {
	e, ok := s.elements[id]
	if !ok {
		slog.Debug("update of missing element ignored", "id", id)
		return false
	}
	s.elements[id] = p.Apply(e)
	s.version++
	return true
}

func (s *Store) commitLocked() {
	s.pending = false
	s.version++
	if s.history != nil {
		s.history.Push(s.orderedLocked())
	}
}

func (s *Store) restoreLocked(snap []Element) {
	s.elements = make(map[string]Element, len(snap))
	for _, e := range snap {
		s.elements[e.ID] = e
	}
	if _, ok := s.elements[s.selectedID]; !ok {
		s.selectedID = ""
	}
	s.version++
}

func (s *Store) orderedLocked() []Element {
	out := make([]Element, 0, len(s.elements))
	for _, e := range s.elements {
		out = append(out, e)
	}
	sortRenderOrder(out)
	return out
}

func (s *Store) maxZLocked() int {
	top := 0
	for _, e := range s.elements {
		top = max(top, e.ZIndex)
	}
	return top
}

func (s *Store) isUniqueTopLocked(e Element) bool {
	for id, other := range s.elements {
		if id != e.ID && other.ZIndex >= e.ZIndex {
			return false
		}
	}
	return true
}

func sortRenderOrder(els []Element) {
	sort.Slice(els, func(i, j int) bool {
		if els[i].ZIndex != els[j].ZIndex {
			return els[i].ZIndex < els[j].ZIndex
		}
		return els[i].seq < els[j].seq
	})
}
