package session

import (
	"fmt"
	"time"
)

// AvailabilityStatus is the semantic takeability tag for an exam.
type AvailabilityStatus string

const (
	AvailabilityCompleted  AvailabilityStatus = "COMPLETED"
	AvailabilityNotYetOpen AvailabilityStatus = "NOT_YET_OPEN"
	AvailabilityOpen       AvailabilityStatus = "OPEN"
	AvailabilityExpired    AvailabilityStatus = "EXPIRED"
)

// Verdict is the takeability outcome for one exam at one instant.
type Verdict struct {
	Label   string             `json:"label"`
	Status  AvailabilityStatus `json:"status"`
	Enabled bool               `json:"enabled"`
}

// Classify maps an exam's resolved window, the current instant and the
// student's attempt history to a takeability verdict.
//
// A completed attempt wins over all time logic. When either bound cannot
// be resolved the exam is treated as open: absence of time data must not
// lock students out.
//
// Classify is pure; callers re-evaluate it on a clock tick so verdicts
// transition live while a lobby is displayed.
func Classify(w Window, now time.Time, attempted bool) Verdict {
	if attempted {
		return Verdict{Label: "Completed", Status: AvailabilityCompleted, Enabled: false}
	}

	if w.Start == nil || w.End == nil {
		return Verdict{Label: "Start Exam", Status: AvailabilityOpen, Enabled: true}
	}

	if now.Before(*w.Start) {
		return Verdict{
			Label:   fmt.Sprintf("Starts: %s", w.Start.Format("15:04")),
			Status:  AvailabilityNotYetOpen,
			Enabled: false,
		}
	}

	if now.After(*w.End) {
		return Verdict{Label: "Expired", Status: AvailabilityExpired, Enabled: false}
	}

	return Verdict{Label: "Start Exam", Status: AvailabilityOpen, Enabled: true}
}
