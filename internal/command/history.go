package command

import (
	"sync"

	"github.com/vimiv-engine/vimiv/internal/mode"
)

// History is a bounded, deduplicating most-recently-used list of command
// lines, independent of the (out-of-scope) commandline widget that would
// display it. Grounded on the original source's history deque tests
// (tests/unit/commands/test_history_deque.py) — SPEC_FULL.md §10.
type History struct {
	mu      sync.Mutex
	maxSize int
	entries map[mode.ID][]string
}

// NewHistory returns a history keeping at most maxSize entries per mode.
func NewHistory(maxSize int) *History {
	return &History{maxSize: maxSize, entries: make(map[mode.ID][]string)}
}

// Record puts line at the front of m's history, removing an earlier copy
// of it if one was present, and evicts the oldest entry once over capacity.
func (h *History) Record(m mode.ID, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.entries[m]
	for i, existing := range list {
		if existing == line {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	list = append([]string{line}, list...)
	if len(list) > h.maxSize {
		list = list[:h.maxSize]
	}
	h.entries[m] = list
}

// List returns m's history, most recent first.
func (h *History) List(m mode.ID) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries[m]))
	copy(out, h.entries[m])
	return out
}
