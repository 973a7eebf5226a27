package document

import "sync"

// DefaultHistoryDepth bounds the number of snapshots kept per page
const DefaultHistoryDepth = 50

// History keeps undo/redo snapshots of page content, per page
type History struct {
	mu    sync.Mutex
	depth int
	pages map[string]*pageHistory
}

type pageHistory struct {
	snapshots []snapshot
	index     int
}

// snapshot is one state of a page. split is set when the state was reached
// by splitting the page; it holds the continuation page that split created.
type snapshot struct {
	content string
	split   *Page
}

// Step is one undo or redo transition of a page
type Step struct {
	// Content is the page content after the step
	Content string
	// Left is the page content the step moved away from
	Left string
	// Continuation is set when the step crosses a split: undo removes this
	// page, redo inserts it again right after the split page.
	Continuation *Page
}

// NewHistory creates a history bounded to depth snapshots per page
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{depth: depth, pages: make(map[string]*pageHistory)}
}

// Record pushes a snapshot for the page. Redo entries past the current
// position are discarded. Recording the current snapshot again is a no-op.
func (h *History) Record(pageID, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push(pageID, snapshot{content: content})
}

// RecordSplit records a split of a page as one step: from before to kept,
// creating continuation. Undoing that step removes the continuation page.
func (h *History) RecordSplit(pageID, before, kept string, continuation Page) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push(pageID, snapshot{content: before})
	h.push(pageID, snapshot{content: kept, split: &continuation})
	delete(h.pages, continuation.ID)
	h.push(continuation.ID, snapshot{content: continuation.Content})
}

func (h *History) push(pageID string, s snapshot) {
	ph, ok := h.pages[pageID]
	if !ok {
		h.pages[pageID] = &pageHistory{snapshots: []snapshot{s}}
		return
	}
	if cur := ph.snapshots[ph.index]; cur.content == s.content && s.split == nil {
		return
	}
	ph.snapshots = append(ph.snapshots[:ph.index+1], s)
	if len(ph.snapshots) > h.depth {
		ph.snapshots = ph.snapshots[len(ph.snapshots)-h.depth:]
	}
	ph.index = len(ph.snapshots) - 1
}

// Undo steps back and returns the previous snapshot
func (h *History) Undo(pageID string) (string, bool) {
	step, ok := h.UndoStep(pageID)
	return step.Content, ok
}

// Redo steps forward and returns the next snapshot
func (h *History) Redo(pageID string) (string, bool) {
	step, ok := h.RedoStep(pageID)
	return step.Content, ok
}

// UndoStep steps back and describes the transition
func (h *History) UndoStep(pageID string) (Step, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph, ok := h.pages[pageID]
	if !ok || ph.index == 0 {
		return Step{}, false
	}
	from := ph.snapshots[ph.index]
	ph.index--
	return Step{
		Content:      ph.snapshots[ph.index].content,
		Left:         from.content,
		Continuation: from.split,
	}, true
}

// RedoStep steps forward and describes the transition
func (h *History) RedoStep(pageID string) (Step, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ph, ok := h.pages[pageID]
	if !ok || ph.index >= len(ph.snapshots)-1 {
		return Step{}, false
	}
	from := ph.snapshots[ph.index]
	ph.index++
	to := ph.snapshots[ph.index]
	return Step{
		Content:      to.content,
		Left:         from.content,
		Continuation: to.split,
	}, true
}

// CanUndo reports whether an undo step exists for the page
func (h *History) CanUndo(pageID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	ph, ok := h.pages[pageID]
	return ok && ph.index > 0
}

// CanRedo reports whether a redo step exists for the page
func (h *History) CanRedo(pageID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	ph, ok := h.pages[pageID]
	return ok && ph.index < len(ph.snapshots)-1
}

// Forget drops the history of a page
func (h *History) Forget(pageID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pages, pageID)
}
