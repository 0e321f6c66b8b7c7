package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/examgate/backend/internal/model"
	"github.com/rs/zerolog"
)

// Manager errors.
var (
	ErrAttemptActive   = errors.New("another attempt is already active")
	ErrNoActiveAttempt = errors.New("no active attempt")
)

// Manager owns the live attempts. At most one attempt exists per student
// at a time; starting a second exam while one is active is rejected
// explicitly instead of leaking undefined concurrent sessions.
type Manager struct {
	feed      StatusFeed
	submitter Submitter
	pollEvery time.Duration
	log       zerolog.Logger

	mu        sync.Mutex
	byStudent map[int]*Attempt
}

// NewManager creates an attempt manager.
func NewManager(feed StatusFeed, submitter Submitter, pollEvery time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		feed:      feed,
		submitter: submitter,
		pollEvery: pollEvery,
		byStudent: make(map[int]*Attempt),
		log:       log.With().Str("component", "session_manager").Logger(),
	}
}

// StartInput carries the immutable snapshot seeding a new attempt.
type StartInput struct {
	Exam      model.Exam
	Questions []model.QuestionForStudent
	StudentID int
	OnSelect  func(questionID, option string)
}

// Start creates and launches an attempt for the student. Re-entering the
// exam of an already-active attempt returns that attempt (idempotent,
// covers page reloads); a live attempt at a different exam is an error.
func (m *Manager) Start(in StartInput) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byStudent[in.StudentID]; ok {
		if existing.Exam.ID == in.Exam.ID {
			return existing, nil
		}
		return nil, ErrAttemptActive
	}

	a := NewAttempt(AttemptConfig{
		Exam:      in.Exam,
		Questions: in.Questions,
		StudentID: in.StudentID,
		Submitter: m.submitter,
		Feed:      m.feed,
		PollEvery: m.pollEvery,
		OnSelect:  in.OnSelect,
		Log:       m.log,
	})
	a.onClose = func() { m.remove(in.StudentID, a) }

	m.byStudent[in.StudentID] = a
	a.start()

	m.log.Info().
		Str("exam_id", in.Exam.ID.String()).
		Int("student_id", in.StudentID).
		Int("questions", len(in.Questions)).
		Msg("Attempt started")

	return a, nil
}

// Get returns the student's live attempt.
func (m *Manager) Get(studentID int) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byStudent[studentID]
	if !ok {
		return nil, ErrNoActiveAttempt
	}
	return a, nil
}

// Abandon finalizes the student's attempt on navigation away or logout.
// It reuses the submission gate, so an abandonment racing the timer's
// expiry still produces a single submission. The session is torn down
// even when the submission itself fails.
func (m *Manager) Abandon(ctx context.Context, studentID int) error {
	a, err := m.Get(studentID)
	if err != nil {
		return err
	}

	err = a.submit(ctx)
	if errors.Is(err, ErrAlreadySubmitted) {
		err = nil
	}

	a.close()
	return err
}

// Shutdown tears down all live attempts without submitting them.
// Autosaved answers survive in Redis, so a restarted node loses nothing.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	attempts := make([]*Attempt, 0, len(m.byStudent))
	for _, a := range m.byStudent {
		attempts = append(attempts, a)
	}
	m.mu.Unlock()

	for _, a := range attempts {
		a.close()
	}
}

func (m *Manager) remove(studentID int, a *Attempt) {
	m.mu.Lock()
	if current, ok := m.byStudent[studentID]; ok && current == a {
		delete(m.byStudent, studentID)
	}
	m.mu.Unlock()
}
