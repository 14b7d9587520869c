package scene

// History is a linear undo stack of scene snapshots with a cursor.
//
// Committing while the cursor sits behind the newest entry discards the
// abandoned branch; branches are never merged. Undo and redo past the
// ends are silent no-ops.
type History struct {
	snapshots []Scene
	cursor    int
}

// NewHistory returns an empty history with the cursor before the first
// entry.
func NewHistory() *History {
	return &History{cursor: -1}
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Cursor returns the current cursor index; -1 means no snapshot.
func (h *History) Cursor() int {
	return h.cursor
}

// Current returns the scene at the cursor. Before the first commit it
// returns an empty scene.
func (h *History) Current() Scene {
	if h.cursor < 0 || h.cursor >= len(h.snapshots) {
		return New()
	}
	return h.snapshots[h.cursor]
}

// Commit truncates everything after the cursor, appends the scene, and
// advances the cursor to it.
func (h *History) Commit(s Scene) {
	h.snapshots = append(h.snapshots[:h.cursor+1], s)
	h.cursor = len(h.snapshots) - 1
}

// Undo moves the cursor back one snapshot if possible and returns the
// now-current scene. At the oldest entry it is a no-op.
func (h *History) Undo() Scene {
	if h.cursor > 0 {
		h.cursor--
	}
	return h.Current()
}

// Redo moves the cursor forward one snapshot if possible and returns
// the now-current scene. At the newest entry it is a no-op.
func (h *History) Redo() Scene {
	if h.cursor < len(h.snapshots)-1 {
		h.cursor++
	}
	return h.Current()
}

// CanUndo reports whether Undo would change the cursor.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether Redo would change the cursor.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.snapshots)-1
}
