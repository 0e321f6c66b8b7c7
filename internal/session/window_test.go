package session

import (
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantNil bool
	}{
		{"rfc3339", "2026-03-01T09:00:00Z", false},
		{"iso without zone", "2026-03-01T09:00:00", false},
		{"space separated", "2026-03-01 09:00:00", false},
		{"date only", "2026-03-01", false},
		{"empty", "", true},
		{"garbage", "not-a-date", true},
		{"partial", "2026-13-99", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseInstant(tc.raw)
			if (got == nil) != tc.wantNil {
				t.Errorf("ParseInstant(%q) = %v, wantNil=%v", tc.raw, got, tc.wantNil)
			}
		})
	}
}

func TestResolveWindowDerivesEnd(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	w := ResolveWindow(&start, nil, 90)

	if w.Start == nil || !w.Start.Equal(start) {
		t.Fatalf("start = %v, want %v", w.Start, start)
	}
	if w.End == nil {
		t.Fatal("end should be derived from start + duration")
	}
	wantEnd := start.Add(90 * time.Minute)
	if !w.End.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", w.End, wantEnd)
	}
}

func TestResolveWindowKeepsExplicitEnd(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	w := ResolveWindow(&start, &end, 60)

	if w.End == nil || !w.End.Equal(end) {
		t.Errorf("explicit end must not be overridden, got %v", w.End)
	}
}

func TestResolveWindowNoStartNoFallback(t *testing.T) {
	w := ResolveWindow(nil, nil, 60)

	if w.Start != nil || w.End != nil {
		t.Errorf("window without start must stay unresolved, got %+v", w)
	}
}

func TestResolveWindowZeroDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	w := ResolveWindow(&start, nil, 0)

	if w.End != nil {
		t.Errorf("no fallback without a positive duration, got end %v", w.End)
	}
}
