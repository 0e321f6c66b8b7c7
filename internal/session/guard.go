package session

import "sync/atomic"

// GuardState is the submission guard's finite-state machine state.
type GuardState int32

const (
	GuardActive GuardState = iota
	GuardSubmitting
	GuardSubmitted
)

// String implements fmt.Stringer for logging.
func (s GuardState) String() string {
	switch s {
	case GuardActive:
		return "active"
	case GuardSubmitting:
		return "submitting"
	case GuardSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// SubmissionGuard ensures an attempt is finalized at most once across
// manual, timeout and abandonment triggers. Transitions use atomic
// compare-and-swap so a manual click racing the timer's expiry cannot
// both pass the gate.
type SubmissionGuard struct {
	state atomic.Int32
}

// NewSubmissionGuard creates a guard in the active state.
func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{}
}

// TryBegin attempts the active → submitting transition. Exactly one
// caller wins; every later call is a no-op returning false.
func (g *SubmissionGuard) TryBegin() bool {
	return g.state.CompareAndSwap(int32(GuardActive), int32(GuardSubmitting))
}

// MarkSubmitted completes the submitting → submitted transition.
func (g *SubmissionGuard) MarkSubmitted() {
	g.state.CompareAndSwap(int32(GuardSubmitting), int32(GuardSubmitted))
}

// Revert rolls submitting back to active after a failed submission so
// the student can retry instead of being stranded mid-submit.
func (g *SubmissionGuard) Revert() {
	g.state.CompareAndSwap(int32(GuardSubmitting), int32(GuardActive))
}

// State returns the current guard state.
func (g *SubmissionGuard) State() GuardState {
	return GuardState(g.state.Load())
}
