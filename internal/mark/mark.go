// Package mark implements marking: a process-wide list of "marked" image
// paths, toggled/cleared/restored as a unit, grounded on original_source's
// vimiv/api/_mark.py. The supplemental tagging feature of SPEC_FULL.md
// §3/§10 lives in internal/tags.
package mark

import (
	"sync"

	"github.com/vimiv-engine/vimiv/internal/signal"
)

// Action selects how Mark treats a path, mirroring _mark.py's
// Mark.Action enum (Toggle/Mark/Unmark).
type Action int

const (
	Toggle Action = iota
	MarkOnly
	UnmarkOnly
)

// List owns the set of currently marked paths plus the last cleared set,
// restorable via Restore (_mark.py's mark_restore).
type List struct {
	mu         sync.Mutex
	marked     []string
	lastMarked []string

	Marked   signal.Bus[string]
	Unmarked signal.Bus[string]
	Done     signal.Bus[struct{}]
}

// New returns an empty mark list.
func New() *List {
	return &List{}
}

// Paths returns a copy of the currently marked paths, in mark order.
func (l *List) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.marked))
	copy(out, l.marked)
	return out
}

// IsMarked reports whether path is currently marked.
func (l *List) IsMarked(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return indexOf(l.marked, path) >= 0
}

// Count returns the number of currently marked paths.
func (l *List) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.marked)
}

// Apply runs action on each of paths, emitting Marked/Unmarked per path and
// Done once at the end (_mark.py's mark() method).
func (l *List) Apply(paths []string, action Action) {
	for _, p := range paths {
		l.apply(p, action)
	}
	l.Done.Emit(struct{}{})
}

func (l *List) apply(path string, action Action) {
	l.mu.Lock()
	idx := indexOf(l.marked, path)
	switch action {
	case MarkOnly:
		if idx >= 0 {
			l.mu.Unlock()
			return
		}
		l.marked = append(l.marked, path)
	case UnmarkOnly:
		if idx < 0 {
			l.mu.Unlock()
			return
		}
		l.marked = removeAt(l.marked, idx)
	default: // Toggle
		if idx >= 0 {
			l.marked = removeAt(l.marked, idx)
		} else {
			l.marked = append(l.marked, path)
		}
	}
	nowMarked := idx < 0 || action == MarkOnly
	if action == UnmarkOnly {
		nowMarked = false
	}
	l.mu.Unlock()

	if nowMarked {
		l.Marked.Emit(path)
	} else {
		l.Unmarked.Emit(path)
	}
}

// Clear empties the mark list, remembering it for Restore, and emits
// Unmarked for each path that was cleared (_mark.py's mark_clear).
func (l *List) Clear() {
	l.mu.Lock()
	cleared := l.marked
	l.marked, l.lastMarked = nil, cleared
	l.mu.Unlock()

	for _, p := range cleared {
		l.Unmarked.Emit(p)
	}
	l.Done.Emit(struct{}{})
}

// Restore re-marks whatever was cleared by the most recent Clear
// (_mark.py's mark_restore).
func (l *List) Restore() {
	l.mu.Lock()
	restored := l.lastMarked
	l.marked, l.lastMarked = restored, nil
	l.mu.Unlock()

	for _, p := range restored {
		l.Marked.Emit(p)
	}
	l.Done.Emit(struct{}{})
}

// SetAll replaces the mark list wholesale (used by tag-load) and emits
// Marked for each newly-loaded path.
func (l *List) SetAll(paths []string) {
	l.mu.Lock()
	l.marked = append([]string(nil), paths...)
	l.mu.Unlock()

	for _, p := range paths {
		l.Marked.Emit(p)
	}
	l.Done.Emit(struct{}{})
}

func indexOf(paths []string, path string) int {
	for i, p := range paths {
		if p == path {
			return i
		}
	}
	return -1
}

func removeAt(paths []string, idx int) []string {
	out := make([]string, 0, len(paths)-1)
	out = append(out, paths[:idx]...)
	return append(out, paths[idx+1:]...)
}
