package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/examgate/backend/internal/model"
	"github.com/examgate/backend/internal/proctor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   atomic.Int32
	answers map[string]string
	err     error
}

func (f *fakeSubmitter) SubmitAttempt(ctx context.Context, examID uuid.UUID, studentID int, answers map[string]string) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.answers = answers
	f.mu.Unlock()
	return nil
}

type safeFeed struct{}

func (safeFeed) Status(ctx context.Context) (proctor.Status, error) {
	return proctor.StatusSafe, nil
}

func testQuestions(n int) []model.QuestionForStudent {
	qs := make([]model.QuestionForStudent, n)
	for i := range qs {
		qs[i] = model.QuestionForStudent{
			ID:      uuid.New(),
			Text:    "question",
			Options: map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		}
	}
	return qs
}

func testAttempt(t *testing.T, questions int, sub Submitter) *Attempt {
	t.Helper()
	return NewAttempt(AttemptConfig{
		Exam: model.Exam{
			ID:              uuid.New(),
			Title:           "Algebra Midterm",
			DurationMinutes: 1,
		},
		Questions: testQuestions(questions),
		StudentID: 7,
		Submitter: sub,
		Feed:      safeFeed{},
		PollEvery: time.Hour, // never fires in tests
		Log:       zerolog.Nop(),
	})
}

func TestAttemptSelectAndPalette(t *testing.T) {
	sub := &fakeSubmitter{}
	a := testAttempt(t, 4, sub)

	q0 := a.Questions[0].ID.String()
	a.Select(q0, "B")

	if err := a.Navigate(2); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	states := a.Palette()
	// q0: answered but not current; q1: never shown; q2: current; q3: untouched.
	want := []PaletteState{PaletteAnswered, PaletteUnvisited, PaletteCurrent, PaletteUnvisited}
	for i, w := range want {
		if states[i] != w {
			t.Errorf("palette[%d] = %q, want %q", i, states[i], w)
		}
	}
}

func TestAttemptCurrentWinsOverAnswered(t *testing.T) {
	sub := &fakeSubmitter{}
	a := testAttempt(t, 2, sub)

	q0 := a.Questions[0].ID.String()
	a.Select(q0, "A")

	// Question 0 is both current and answered: CURRENT wins.
	if states := a.Palette(); states[0] != PaletteCurrent {
		t.Errorf("palette[0] = %q, want %q", states[0], PaletteCurrent)
	}
}

func TestAttemptNavigateOutOfRange(t *testing.T) {
	a := testAttempt(t, 3, &fakeSubmitter{})

	if err := a.Navigate(3); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("err = %v, want ErrPositionOutOfRange", err)
	}
	if err := a.Navigate(-1); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("err = %v, want ErrPositionOutOfRange", err)
	}
}

func TestAttemptManualFinishRequiresConfirmation(t *testing.T) {
	sub := &fakeSubmitter{}
	a := testAttempt(t, 1, sub)

	if err := a.Finish(context.Background(), false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("err = %v, want ErrConfirmationRequired", err)
	}
	if sub.calls.Load() != 0 {
		t.Error("unconfirmed finish must not submit")
	}

	if err := a.Finish(context.Background(), true); err != nil {
		t.Fatalf("confirmed finish: %v", err)
	}
	if sub.calls.Load() != 1 {
		t.Errorf("submit calls = %d, want 1", sub.calls.Load())
	}
	if !a.Submitted() {
		t.Error("attempt should be submitted")
	}
}

func TestAttemptExpirySubmitsLedgerAtThatInstant(t *testing.T) {
	sub := &fakeSubmitter{}
	a := testAttempt(t, 2, sub)

	q0 := a.Questions[0].ID.String()
	a.Select(q0, "C")

	// Drain the countdown; the final tick fires the timeout path with
	// whatever the ledger holds at that instant.
	for a.countdown.Running() {
		a.countdown.Tick()
	}

	if sub.calls.Load() != 1 {
		t.Fatalf("submit calls = %d, want 1", sub.calls.Load())
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.answers[q0] != "C" {
		t.Errorf("submitted answers = %v, want q0:C", sub.answers)
	}
}

func TestAttemptManualAndTimeoutRace(t *testing.T) {
	sub := &fakeSubmitter{}
	a := testAttempt(t, 1, sub)

	// Exhaust all but the final second.
	for a.countdown.Remaining() > 1 {
		a.countdown.Tick()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.countdown.Tick() // expiry → timeout trigger
	}()
	go func() {
		defer wg.Done()
		_ = a.Finish(context.Background(), true) // manual trigger
	}()
	wg.Wait()

	if sub.calls.Load() != 1 {
		t.Errorf("submit calls = %d, want exactly 1", sub.calls.Load())
	}
}

func TestAttemptFailedSubmitRevertsForRetry(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("grading backend down")}
	a := testAttempt(t, 1, sub)

	if err := a.Finish(context.Background(), true); err == nil {
		t.Fatal("expected submit error")
	}
	if a.Submitted() {
		t.Fatal("failed submit must not mark the attempt submitted")
	}

	// Retry succeeds once the collaborator recovers.
	sub.err = nil
	if err := a.Finish(context.Background(), true); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sub.calls.Load() != 2 {
		t.Errorf("submit calls = %d, want 2", sub.calls.Load())
	}
}

func TestAttemptSnapshot(t *testing.T) {
	a := testAttempt(t, 3, &fakeSubmitter{})

	q1 := a.Questions[1].ID.String()
	_ = a.Navigate(1)
	a.Select(q1, "D")

	s := a.Snapshot()
	if s.CurrentPosition != 1 {
		t.Errorf("current = %d, want 1", s.CurrentPosition)
	}
	if s.Answers[q1] != "D" {
		t.Errorf("answers = %v, want q1:D", s.Answers)
	}
	if s.RemainingSeconds != 60 {
		t.Errorf("remaining = %d, want 60", s.RemainingSeconds)
	}
	if s.RemainingDisplay != "1:00" {
		t.Errorf("display = %q, want 1:00", s.RemainingDisplay)
	}
	if s.Submitted {
		t.Error("fresh attempt must not be submitted")
	}
}

func TestAttemptEventsOnSubmit(t *testing.T) {
	sub := &fakeSubmitter{}
	a := testAttempt(t, 1, sub)

	ch := a.Subscribe()
	defer a.Unsubscribe(ch)

	if err := a.Finish(context.Background(), true); err != nil {
		t.Fatalf("finish: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != EventSubmitted {
			t.Errorf("event = %q, want %q", ev.Type, EventSubmitted)
		}
	default:
		t.Error("expected a submitted event")
	}
}
