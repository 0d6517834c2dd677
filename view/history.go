package view

import fractal "github.com/marben/fractal_nav"

// DefaultHistoryCap is the undo depth kept by a Navigator.
const DefaultHistoryCap = 100

// History is a bounded stack of regions, most recent first. Pushing onto a
// full history silently drops the oldest entry.
type History struct {
	entries []fractal.Region // oldest first; top is the last element
	cap     int
}

// NewHistory returns an empty history holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{cap: capacity, entries: make([]fractal.Region, 0, capacity)}
}

// Push records r as the most recent entry.
func (h *History) Push(r fractal.Region) {
	if len(h.entries) == h.cap {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, r)
}

// Pop removes and returns the most recent entry.
func (h *History) Pop() (fractal.Region, bool) {
	if len(h.entries) == 0 {
		return fractal.Region{}, false
	}
	r := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return r, true
}

// Top returns the most recent entry without removing it.
func (h *History) Top() (fractal.Region, bool) {
	if len(h.entries) == 0 {
		return fractal.Region{}, false
	}
	return h.entries[len(h.entries)-1], true
}

func (h *History) Len() int { return len(h.entries) }
func (h *History) Cap() int { return h.cap }
