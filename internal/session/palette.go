package session

import "sync"

// PaletteState is the 4-way classification of a palette button.
type PaletteState string

const (
	PaletteCurrent   PaletteState = "CURRENT"
	PaletteAnswered  PaletteState = "ANSWERED"
	PaletteVisited   PaletteState = "VISITED"
	PaletteUnvisited PaletteState = "UNVISITED"
)

// PaletteTracker records which question positions have been displayed.
// Entries are added the first time a position is shown and never removed.
type PaletteTracker struct {
	mu      sync.RWMutex
	visited map[int]bool
}

// NewPaletteTracker creates a tracker with position 0 already visited:
// the first question is presented immediately when a session starts.
func NewPaletteTracker() *PaletteTracker {
	return &PaletteTracker{visited: map[int]bool{0: true}}
}

// MarkVisited flags a position as visited. Idempotent.
func (p *PaletteTracker) MarkVisited(position int) {
	p.mu.Lock()
	p.visited[position] = true
	p.mu.Unlock()
}

// Visited reports whether a position has been displayed.
func (p *PaletteTracker) Visited(position int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.visited[position]
}

// ClassifyPalette derives the button state for one question. Precedence
// order is significant: the currently displayed question shows as CURRENT
// even when it is already answered.
func ClassifyPalette(position, current int, answered, visited bool) PaletteState {
	switch {
	case position == current:
		return PaletteCurrent
	case answered:
		return PaletteAnswered
	case visited:
		return PaletteVisited
	default:
		return PaletteUnvisited
	}
}
