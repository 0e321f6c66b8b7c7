package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examgate/backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func testManager(sub Submitter) *Manager {
	return NewManager(safeFeed{}, sub, time.Hour, zerolog.Nop())
}

func startInput(studentID int) StartInput {
	return StartInput{
		Exam: model.Exam{
			ID:              uuid.New(),
			Title:           "History Final",
			DurationMinutes: 30,
		},
		Questions: testQuestions(2),
		StudentID: studentID,
	}
}

func TestManagerStartAndGet(t *testing.T) {
	m := testManager(&fakeSubmitter{})
	defer m.Shutdown()

	a, err := m.Start(startInput(1))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	got, err := m.Get(1)
	if err != nil || got != a {
		t.Errorf("Get returned (%v, %v), want the started attempt", got, err)
	}
}

func TestManagerRejectsSecondExam(t *testing.T) {
	m := testManager(&fakeSubmitter{})
	defer m.Shutdown()

	if _, err := m.Start(startInput(1)); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := m.Start(startInput(1)) // different exam, same student
	if !errors.Is(err, ErrAttemptActive) {
		t.Errorf("err = %v, want ErrAttemptActive", err)
	}
}

func TestManagerReentrySameExamIsIdempotent(t *testing.T) {
	m := testManager(&fakeSubmitter{})
	defer m.Shutdown()

	in := startInput(1)
	first, err := m.Start(in)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	second, err := m.Start(in)
	if err != nil {
		t.Fatalf("re-entry: %v", err)
	}
	if first != second {
		t.Error("re-entering the same exam must return the existing attempt")
	}
}

func TestManagerSubmitDetachesAttempt(t *testing.T) {
	m := testManager(&fakeSubmitter{})
	defer m.Shutdown()

	a, err := m.Start(startInput(1))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := a.Finish(context.Background(), true); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if _, err := m.Get(1); !errors.Is(err, ErrNoActiveAttempt) {
		t.Errorf("submitted attempt still registered: %v", err)
	}

	// A new exam can be started afterwards.
	if _, err := m.Start(startInput(1)); err != nil {
		t.Errorf("start after submit: %v", err)
	}
}

func TestManagerAbandonSubmitsOnce(t *testing.T) {
	sub := &fakeSubmitter{}
	m := testManager(sub)
	defer m.Shutdown()

	if _, err := m.Start(startInput(1)); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Abandon(context.Background(), 1); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if sub.calls.Load() != 1 {
		t.Errorf("submit calls = %d, want 1", sub.calls.Load())
	}
	if _, err := m.Get(1); !errors.Is(err, ErrNoActiveAttempt) {
		t.Error("abandoned attempt must be detached")
	}
}

func TestManagerAbandonWithoutAttempt(t *testing.T) {
	m := testManager(&fakeSubmitter{})

	if err := m.Abandon(context.Background(), 99); !errors.Is(err, ErrNoActiveAttempt) {
		t.Errorf("err = %v, want ErrNoActiveAttempt", err)
	}
}
