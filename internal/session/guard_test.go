package session

import (
	"sync"
	"testing"
)

func TestGuardSingleWinner(t *testing.T) {
	g := NewSubmissionGuard()

	if !g.TryBegin() {
		t.Fatal("first trigger must pass")
	}
	if g.TryBegin() {
		t.Fatal("second trigger while submitting must be a no-op")
	}

	g.MarkSubmitted()
	if g.TryBegin() {
		t.Fatal("trigger after submitted must be a no-op")
	}
	if g.State() != GuardSubmitted {
		t.Errorf("state = %v, want submitted", g.State())
	}
}

func TestGuardRevertAllowsRetry(t *testing.T) {
	g := NewSubmissionGuard()

	if !g.TryBegin() {
		t.Fatal("first trigger must pass")
	}
	g.Revert()

	if g.State() != GuardActive {
		t.Fatalf("state after revert = %v, want active", g.State())
	}
	if !g.TryBegin() {
		t.Error("retry after revert must pass")
	}
}

func TestGuardConcurrentTriggers(t *testing.T) {
	// Manual click and timer expiry racing in the same instant:
	// exactly one may pass.
	g := NewSubmissionGuard()

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryBegin() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	if n := len(wins); n != 1 {
		t.Errorf("%d triggers passed the guard, want exactly 1", n)
	}
}
