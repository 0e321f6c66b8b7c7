package session

import "time"

// Window is the resolved [start, end] interval during which an exam
// may be started. Either bound may be nil when the record carries no
// usable time data.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// instantLayouts are tried in order when parsing raw date strings from
// legacy exam records. Parsing is lenient: anything unparsable yields nil.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses a raw date string, returning nil for empty or
// unparsable input. It never returns an error.
func ParseInstant(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// ResolveWindow computes an exam's open/close instants. Historical exam
// records may lack an explicit close time; when End is absent but Start
// and a positive duration are known, the close instant is derived as
// Start + duration. Without a Start there is no base to derive from, so
// End stays nil unless independently present.
func ResolveWindow(start, end *time.Time, durationMinutes int) Window {
	w := Window{Start: start, End: end}

	if w.End == nil && w.Start != nil && durationMinutes > 0 {
		derived := w.Start.Add(time.Duration(durationMinutes) * time.Minute)
		w.End = &derived
	}

	return w
}
