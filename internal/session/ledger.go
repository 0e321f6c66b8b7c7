package session

import "sync"

// AnswerLedger maps question ID → selected option letter. It is the
// source of truth for "answered" state within one attempt. Entries are
// only ever added or overwritten, never removed during a session.
//
// The ledger performs no validation of the option value; garbage-in is
// accepted. Validation, where wanted, belongs to the request layer.
type AnswerLedger struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewAnswerLedger creates an empty ledger.
func NewAnswerLedger() *AnswerLedger {
	return &AnswerLedger{m: make(map[string]string)}
}

// Select records a selection, overwriting any prior one for the question.
func (l *AnswerLedger) Select(questionID, option string) {
	l.mu.Lock()
	l.m[questionID] = option
	l.mu.Unlock()
}

// IsAnswered reports whether a selection exists for the question.
func (l *AnswerLedger) IsAnswered(questionID string) bool {
	l.mu.RLock()
	_, ok := l.m[questionID]
	l.mu.RUnlock()
	return ok
}

// Count returns the number of answered questions.
func (l *AnswerLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.m)
}

// Snapshot returns a copy of the ledger at this exact moment. The
// submission path calls it inside the guard transition so the submitted
// answers reflect the instant of submission, not an earlier capture.
func (l *AnswerLedger) Snapshot() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]string, len(l.m))
	for k, v := range l.m {
		out[k] = v
	}
	return out
}
