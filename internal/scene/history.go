package scene

// DefaultHistoryLimit bounds the number of retained history entries.
const DefaultHistoryLimit = 50

// History is a linear undo log of element snapshots. Entry 0 is the state
// the log was started from; the cursor points at the entry matching the
// current scene. Pushing after an undo discards everything past the cursor.
type History struct {
	entries [][]Element
	cursor  int
	limit   int
}

// NewHistory starts a log at the given initial state. A limit below 2 falls
// back to DefaultHistoryLimit.
func NewHistory(limit int, initial []Element) *History {
	if limit < 2 {
		limit = DefaultHistoryLimit
	}
	h := &History{limit: limit}
	h.Reset(initial)
	return h
}

// Reset drops every entry and starts again from initial.
func (h *History) Reset(initial []Element) {
	h.entries = [][]Element{cloneElements(initial)}
	h.cursor = 0
}

// Push records a committed state.
func (h *History) Push(snapshot []Element) {
	h.entries = append(h.entries[:h.cursor+1], cloneElements(snapshot))
	h.cursor++

	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([][]Element(nil), h.entries[over:]...)
		h.cursor -= over
	}
}

// Undo moves the cursor back and returns the state to restore.
func (h *History) Undo() ([]Element, bool) {
	if h.cursor == 0 {
		return nil, false
	}
	h.cursor--
	return cloneElements(h.entries[h.cursor]), true
}

// Redo moves the cursor forward and returns the state to restore.
func (h *History) Redo() ([]Element, bool) {
	if h.cursor >= len(h.entries)-1 {
		return nil, false
	}
	h.cursor++
	return cloneElements(h.entries[h.cursor]), true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Len returns the number of retained entries, including the initial one.
func (h *History) Len() int { return len(h.entries) }

func cloneElements(src []Element) []Element {
	if src == nil {
		return []Element{}
	}
	out := make([]Element, len(src))
	copy(out, src)
	return out
}
