package store

import (
	"time"

	"github.com/vgreport/vgdraft/internal/report"
)

// Defaults for the undo history.
const (
	DefaultCoalesceWindow = 1000 * time.Millisecond
	DefaultHistoryCap     = 200
)

// HistoryEntry records one reversible edit to a single comment cell. Before
// and After are deep copies so later edits to the live draft cannot corrupt
// history.
type HistoryEntry struct {
	StudentID string
	Frame     report.FrameID
	Section   report.SectionID
	Before    report.CommentDraft
	After     report.CommentDraft
	At        time.Time
}

func (e HistoryEntry) sameCell(o HistoryEntry) bool {
	return e.StudentID == o.StudentID && e.Frame == o.Frame && e.Section == o.Section
}

// history holds the bounded undo and redo stacks. Not safe for concurrent
// use, the store serializes access.
type history struct {
	window time.Duration
	limit  int
	undo   []HistoryEntry
	redo   []HistoryEntry
}

func newHistory(window time.Duration, limit int) *history {
	return &history{window: window, limit: limit}
}

// Push records a new edit. Consecutive edits to the same cell inside the
// coalescing window merge into the top entry, keeping its original Before and
// taking the new After. The stack is capped by dropping the oldest entry.
func (h *history) Push(entry HistoryEntry) {
	if n := len(h.undo); n > 0 {
		top := &h.undo[n-1]
		if top.sameCell(entry) && entry.At.Sub(top.At) <= h.window {
			top.After = entry.After
			top.At = entry.At
			return
		}
	}

	h.undo = append(h.undo, entry)
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
}

// Undo pops the latest entry onto the redo stack and returns it.
func (h *history) Undo() (HistoryEntry, bool) {
	n := len(h.undo)
	if n == 0 {
		return HistoryEntry{}, false
	}
	entry := h.undo[n-1]
	h.undo = h.undo[:n-1]
	h.redo = append(h.redo, entry)
	return entry, true
}

// Redo pops the latest undone entry back onto the undo stack and returns it.
func (h *history) Redo() (HistoryEntry, bool) {
	n := len(h.redo)
	if n == 0 {
		return HistoryEntry{}, false
	}
	entry := h.redo[n-1]
	h.redo = h.redo[:n-1]
	h.undo = append(h.undo, entry)
	return entry, true
}

// ClearRedo drops the redo stack. Called on every new edit, branching history
// is not preserved.
func (h *history) ClearRedo() {
	h.redo = nil
}

// Reset drops both stacks.
func (h *history) Reset() {
	h.undo = nil
	h.redo = nil
}

func (h *history) UndoDepth() int { return len(h.undo) }
func (h *history) RedoDepth() int { return len(h.redo) }
