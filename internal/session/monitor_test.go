package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examgate/backend/internal/proctor"
	"github.com/rs/zerolog"
)

type scriptedFeed struct {
	responses []feedResponse
	calls     int
}

type feedResponse struct {
	status proctor.Status
	err    error
}

func (f *scriptedFeed) Status(ctx context.Context) (proctor.Status, error) {
	r := f.responses[f.calls%len(f.responses)]
	f.calls++
	return r.status, r.err
}

func TestMonitorPollUpdatesStatus(t *testing.T) {
	feed := &scriptedFeed{responses: []feedResponse{{status: proctor.StatusMissing}}}
	m := NewProctorMonitor(feed, 2*time.Second, zerolog.Nop())

	m.Poll(context.Background())

	status, alert := m.State()
	if status != proctor.StatusMissing || !alert {
		t.Errorf("state = (%q, %v), want (missing, true)", status, alert)
	}
}

func TestMonitorFailedPollKeepsPreviousStatus(t *testing.T) {
	feed := &scriptedFeed{responses: []feedResponse{
		{status: proctor.StatusMultiple},
		{err: errors.New("connection refused")},
	}}
	m := NewProctorMonitor(feed, 2*time.Second, zerolog.Nop())

	m.Poll(context.Background())
	m.Poll(context.Background()) // fails

	status, alert := m.State()
	if status != proctor.StatusMultiple || !alert {
		t.Errorf("failed poll changed state to (%q, %v), want stale (multiple, true)", status, alert)
	}
}

func TestMonitorOnChangeFiresOnTransitionsOnly(t *testing.T) {
	feed := &scriptedFeed{responses: []feedResponse{
		{status: proctor.StatusSafe},
		{status: proctor.StatusMissing},
		{status: proctor.StatusMissing},
		{status: proctor.StatusSafe},
	}}
	m := NewProctorMonitor(feed, 2*time.Second, zerolog.Nop())

	var changes []proctor.Status
	m.OnChange(func(status proctor.Status, alert bool) {
		changes = append(changes, status)
	})

	for i := 0; i < 4; i++ {
		m.Poll(context.Background())
	}

	// Initial state is safe, so only missing and the return to safe fire.
	if len(changes) != 2 || changes[0] != proctor.StatusMissing || changes[1] != proctor.StatusSafe {
		t.Errorf("changes = %v, want [missing safe]", changes)
	}
}

func TestMonitorStopsWithContext(t *testing.T) {
	feed := &scriptedFeed{responses: []feedResponse{{status: proctor.StatusSafe}}}
	m := NewProctorMonitor(feed, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}
