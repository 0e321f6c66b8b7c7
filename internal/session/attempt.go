package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/proctor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Attempt lifecycle errors.
var (
	ErrAlreadySubmitted     = errors.New("attempt already submitted")
	ErrConfirmationRequired = errors.New("manual submission requires confirmation")
	ErrPositionOutOfRange   = errors.New("question position out of range")
)

// Submitter is the external grading collaborator. The submission guard
// guarantees it is invoked at most once per attempt.
type Submitter interface {
	SubmitAttempt(ctx context.Context, examID uuid.UUID, studentID int, answers map[string]string) error
}

// EventType tags events pushed to attempt subscribers.
type EventType string

const (
	EventTick      EventType = "tick"
	EventProctor   EventType = "proctor_alert"
	EventSubmitted EventType = "submitted"
)

// Event is a live update emitted by an attempt's background activities.
type Event struct {
	Type             EventType      `json:"event"`
	RemainingSeconds int            `json:"remaining_seconds,omitempty"`
	RemainingDisplay string         `json:"remaining_display,omitempty"`
	ProctorStatus    proctor.Status `json:"proctor_status,omitempty"`
	ProctorAlert     bool           `json:"proctor_alert,omitempty"`
	ProctorMessage   string         `json:"proctor_message,omitempty"`
}

// State is the full attempt snapshot handed to a reloading client.
type State struct {
	ExamID           uuid.UUID         `json:"exam_id"`
	Title            string            `json:"title"`
	RemainingSeconds int               `json:"remaining_seconds"`
	RemainingDisplay string            `json:"remaining_display"`
	CurrentPosition  int               `json:"current_position"`
	Answers          map[string]string `json:"answers"`
	Palette          []PaletteState    `json:"palette"`
	ProctorStatus    proctor.Status    `json:"proctor_status"`
	ProctorAlert     bool              `json:"proctor_alert"`
	Submitted        bool              `json:"submitted"`
}

// AttemptConfig carries everything needed to build a live attempt.
type AttemptConfig struct {
	Exam      model.Exam
	Questions []model.QuestionForStudent
	StudentID int
	Submitter Submitter
	Feed      StatusFeed
	PollEvery time.Duration
	// OnSelect, when set, observes every answer selection (autosave hook).
	OnSelect func(questionID, option string)
	Log      zerolog.Logger
}

// Attempt is one student's live pass at an exam. It owns an immutable
// snapshot of the exam and its questions plus all mutable session state:
// the answer ledger, the palette tracker, the countdown, the proctor
// monitor and the submission guard. No other component mutates these.
type Attempt struct {
	Exam      model.Exam
	Questions []model.QuestionForStudent
	StudentID int
	StartedAt time.Time

	ledger    *AnswerLedger
	palette   *PaletteTracker
	countdown *Countdown
	monitor   *ProctorMonitor
	guard     *SubmissionGuard

	mu          sync.Mutex
	current     int
	subscribers map[chan Event]struct{}

	cancel    context.CancelFunc
	closeOnce sync.Once
	onClose   func()
	onSelect  func(questionID, option string)
	submitter Submitter
	log       zerolog.Logger
}

// NewAttempt builds an attempt without starting its background
// activities; call start to launch the countdown and proctor monitor.
func NewAttempt(cfg AttemptConfig) *Attempt {
	a := &Attempt{
		Exam:        cfg.Exam,
		Questions:   cfg.Questions,
		StudentID:   cfg.StudentID,
		StartedAt:   time.Now(),
		ledger:      NewAnswerLedger(),
		palette:     NewPaletteTracker(),
		guard:       NewSubmissionGuard(),
		subscribers: make(map[chan Event]struct{}),
		onSelect:    cfg.OnSelect,
		submitter:   cfg.Submitter,
		log: cfg.Log.With().
			Str("component", "attempt").
			Str("exam_id", cfg.Exam.ID.String()).
			Int("student_id", cfg.StudentID).
			Logger(),
	}

	a.countdown = NewCountdown(cfg.Exam.DurationMinutes*60, a.autoSubmit)
	a.monitor = NewProctorMonitor(cfg.Feed, cfg.PollEvery, cfg.Log)
	a.monitor.OnChange(func(status proctor.Status, alert bool) {
		a.publish(Event{
			Type:           EventProctor,
			ProctorStatus:  status,
			ProctorAlert:   alert,
			ProctorMessage: status.Message(),
		})
	})

	return a
}

// start launches the countdown ticker and the proctor poll loop. Both
// are bound to a context cancelled at teardown, so neither can outlive
// the session.
func (a *Attempt) start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.countdown.Run(ctx, func(remaining int) {
		a.publish(Event{
			Type:             EventTick,
			RemainingSeconds: remaining,
			RemainingDisplay: FormatRemaining(remaining),
		})
	})
	go a.monitor.Run(ctx)
}

// Select records an answer. The ledger accepts the option as-is; the
// autosave hook mirrors the selection to durable storage.
func (a *Attempt) Select(questionID, option string) {
	a.ledger.Select(questionID, option)
	if a.onSelect != nil {
		a.onSelect(questionID, option)
	}
}

// Navigate moves the current question to position, marking it visited.
// Works for forward, backward and palette jumps alike.
func (a *Attempt) Navigate(position int) error {
	if position < 0 || position >= len(a.Questions) {
		return ErrPositionOutOfRange
	}

	a.palette.MarkVisited(position)

	a.mu.Lock()
	a.current = position
	a.mu.Unlock()
	return nil
}

// CurrentPosition returns the currently displayed question index.
func (a *Attempt) CurrentPosition() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Palette classifies every question position for palette rendering.
func (a *Attempt) Palette() []PaletteState {
	current := a.CurrentPosition()

	states := make([]PaletteState, len(a.Questions))
	for i, q := range a.Questions {
		states[i] = ClassifyPalette(i, current, a.ledger.IsAnswered(q.ID.String()), a.palette.Visited(i))
	}
	return states
}

// AnsweredCount returns how many questions have a recorded answer.
func (a *Attempt) AnsweredCount() int {
	return a.ledger.Count()
}

// Remaining returns the countdown's remaining seconds.
func (a *Attempt) Remaining() int {
	return a.countdown.Remaining()
}

// Proctor returns the last known proctor status and alert flag.
func (a *Attempt) Proctor() (proctor.Status, bool) {
	return a.monitor.State()
}

// Submitted reports whether the attempt has been finalized.
func (a *Attempt) Submitted() bool {
	return a.guard.State() == GuardSubmitted
}

// Snapshot assembles the full state for a reloading client.
func (a *Attempt) Snapshot() State {
	remaining := a.Remaining()
	status, alert := a.Proctor()

	return State{
		ExamID:           a.Exam.ID,
		Title:            a.Exam.Title,
		RemainingSeconds: remaining,
		RemainingDisplay: FormatRemaining(remaining),
		CurrentPosition:  a.CurrentPosition(),
		Answers:          a.ledger.Snapshot(),
		Palette:          a.Palette(),
		ProctorStatus:    status,
		ProctorAlert:     alert,
		Submitted:        a.Submitted(),
	}
}

// Finish performs the manual submission path. Confirmation is required;
// the timeout path bypasses it because the student is out of time.
func (a *Attempt) Finish(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	return a.submit(ctx)
}

// autoSubmit is the countdown's expiry path. No confirmation; failures
// are logged and the guard reverts so a manual retry remains possible.
func (a *Attempt) autoSubmit() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.submit(ctx); err != nil && !errors.Is(err, ErrAlreadySubmitted) {
		a.log.Error().Err(err).Msg("Auto-submit failed")
	}
}

// submit is the single gate both triggers funnel through. The guard's
// CAS decides the winner; the ledger snapshot is taken after winning so
// it reflects the exact moment of submission.
func (a *Attempt) submit(ctx context.Context) error {
	if !a.guard.TryBegin() {
		return ErrAlreadySubmitted
	}

	answers := a.ledger.Snapshot()

	if err := a.submitter.SubmitAttempt(ctx, a.Exam.ID, a.StudentID, answers); err != nil {
		a.guard.Revert()
		return fmt.Errorf("submit attempt: %w", err)
	}

	a.guard.MarkSubmitted()
	a.log.Info().Int("answered", len(answers)).Msg("Attempt submitted")

	a.publish(Event{Type: EventSubmitted})
	a.close()
	return nil
}

// close tears the session down: the countdown and the proctor monitor
// stop immediately and the attempt is detached from its manager.
// Idempotent.
func (a *Attempt) close() {
	a.closeOnce.Do(func() {
		a.countdown.Stop()
		if a.cancel != nil {
			a.cancel()
		}
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Subscribe registers a live event channel. The returned channel is
// buffered; slow consumers miss events rather than stall the tickers.
func (a *Attempt) Subscribe() chan Event {
	ch := make(chan Event, 16)
	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	a.mu.Unlock()
	return ch
}

// Unsubscribe removes a previously registered channel.
func (a *Attempt) Unsubscribe(ch chan Event) {
	a.mu.Lock()
	delete(a.subscribers, ch)
	a.mu.Unlock()
}

func (a *Attempt) publish(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ch := range a.subscribers {
		select {
		case ch <- ev:
		default: // drop rather than block a tick
		}
	}
}
