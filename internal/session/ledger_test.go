package session

import "testing"

func TestLedgerSelectOverwrites(t *testing.T) {
	l := NewAnswerLedger()

	l.Select("q1", "B")
	l.Select("q1", "D")

	if !l.IsAnswered("q1") {
		t.Fatal("q1 should be answered")
	}

	snap := l.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d entries, want 1", len(snap))
	}
	if snap["q1"] != "D" {
		t.Errorf("snapshot q1 = %q, want D", snap["q1"])
	}
}

func TestLedgerUnanswered(t *testing.T) {
	l := NewAnswerLedger()

	if l.IsAnswered("q1") {
		t.Error("empty ledger should report unanswered")
	}
	if l.Count() != 0 {
		t.Errorf("count = %d, want 0", l.Count())
	}
}

func TestLedgerAcceptsArbitraryOptions(t *testing.T) {
	// No validation at this layer; garbage-in is accepted.
	l := NewAnswerLedger()
	l.Select("q1", "Z")

	if !l.IsAnswered("q1") {
		t.Error("arbitrary option should still count as answered")
	}
}

func TestLedgerSnapshotIsACopy(t *testing.T) {
	l := NewAnswerLedger()
	l.Select("q1", "A")

	snap := l.Snapshot()
	snap["q2"] = "B"

	if l.IsAnswered("q2") {
		t.Error("mutating a snapshot must not affect the ledger")
	}
}
