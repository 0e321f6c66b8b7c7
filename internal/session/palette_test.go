package session

import "testing"

func TestPaletteInitialVisit(t *testing.T) {
	p := NewPaletteTracker()

	if !p.Visited(0) {
		t.Error("position 0 must be visited at session start")
	}
	if p.Visited(1) {
		t.Error("position 1 should start unvisited")
	}
}

func TestPaletteMarkVisitedIdempotent(t *testing.T) {
	p := NewPaletteTracker()

	p.MarkVisited(3)
	p.MarkVisited(3)

	if !p.Visited(3) {
		t.Error("position 3 should be visited")
	}
}

func TestClassifyPalettePrecedence(t *testing.T) {
	cases := []struct {
		name               string
		position, current  int
		answered, visited  bool
		want               PaletteState
	}{
		{"current wins over answered", 2, 2, true, true, PaletteCurrent},
		{"answered wins over visited", 1, 0, true, true, PaletteAnswered},
		{"visited unanswered", 1, 0, false, true, PaletteVisited},
		{"unvisited", 1, 0, false, false, PaletteUnvisited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyPalette(tc.position, tc.current, tc.answered, tc.visited)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
