package engine

// History is a bounded stack of prior states used for undo. The oldest
// snapshot is discarded when the limit is exceeded.
type History struct {
	snapshots []*GameState
	limit     int
}

// NewHistory creates a history holding at most limit snapshots
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = MaxUndoHistory
	}
	return &History{
		snapshots: make([]*GameState, 0, limit),
		limit:     limit,
	}
}

// Push records a snapshot of state
func (h *History) Push(state *GameState) {
	if len(h.snapshots) == h.limit {
		copy(h.snapshots, h.snapshots[1:])
		h.snapshots = h.snapshots[:len(h.snapshots)-1]
	}
	h.snapshots = append(h.snapshots, state.Clone())
}

// Pop removes and returns the most recent snapshot
func (h *History) Pop() (*GameState, bool) {
	if len(h.snapshots) == 0 {
		return nil, false
	}
	last := len(h.snapshots) - 1
	state := h.snapshots[last]
	h.snapshots[last] = nil
	h.snapshots = h.snapshots[:last]
	return state, true
}

// Len returns the number of stored snapshots
func (h *History) Len() int {
	return len(h.snapshots)
}

// Limit returns the maximum number of snapshots kept
func (h *History) Limit() int {
	return h.limit
}

// Clear drops every snapshot
func (h *History) Clear() {
	for i := range h.snapshots {
		h.snapshots[i] = nil
	}
	h.snapshots = h.snapshots[:0]
}

// Undo restores the most recent snapshot. The wall-clock counter keeps the
// current value. With an empty history it returns current unchanged and false.
func Undo(current *GameState, h *History) (*GameState, bool) {
	prev, ok := h.Pop()
	if !ok {
		return current, false
	}
	if current != nil {
		prev.ElapsedSeconds = current.ElapsedSeconds
	}
	return prev, true
}
