package session

import (
	"strings"
	"testing"
	"time"
)

func TestClassifyCompletedWinsOverWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	w := Window{Start: &start, End: &end}

	// Completed must win at every point relative to the window.
	instants := []time.Time{
		start.Add(-time.Hour),
		start.Add(30 * time.Minute),
		end.Add(time.Hour),
	}

	for _, now := range instants {
		v := Classify(w, now, true)
		if v.Status != AvailabilityCompleted || v.Enabled {
			t.Errorf("at %v: got %+v, want completed/disabled", now, v)
		}
	}
}

func TestClassifyUnresolvedWindowIsOpen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []Window{
		{},
		{Start: &now}, // end nil and no derivation done by the caller
	}

	for _, w := range cases {
		v := Classify(w, now, false)
		if v.Status != AvailabilityOpen || !v.Enabled {
			t.Errorf("window %+v: got %+v, want open/enabled", w, v)
		}
	}
}

func TestClassifyNotYetOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	w := Window{Start: &start, End: &end}

	v := Classify(w, start.Add(-10*time.Minute), false)

	if v.Status != AvailabilityNotYetOpen || v.Enabled {
		t.Fatalf("got %+v, want not-yet-open/disabled", v)
	}
	if !strings.Contains(v.Label, "14:30") {
		t.Errorf("label %q should carry the formatted start time", v.Label)
	}
}

func TestClassifyOpenThenExpired(t *testing.T) {
	// Exam{duration=1m, start=T, end=nil}: resolver derives end=T+60s.
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	w := ResolveWindow(&start, nil, 1)

	if v := Classify(w, start.Add(30*time.Second), false); v.Status != AvailabilityOpen || !v.Enabled {
		t.Errorf("at T+30s: got %+v, want open/enabled", v)
	}
	if v := Classify(w, start.Add(90*time.Second), false); v.Status != AvailabilityExpired || v.Enabled {
		t.Errorf("at T+90s: got %+v, want expired/disabled", v)
	}
}
