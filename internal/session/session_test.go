package session

import (
	"fmt"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stamped returns an interaction with a fixed-width timestamp so key order in
// tests is deterministic.
func stamped(i int, query string) Interaction {
	return Interaction{
		Timestamp: fmt.Sprintf("2026-09-01T10:00:%02d.000000000Z", i),
		Query:     query,
	}
}

func TestRecord_AssignsIDAndTimestamp(t *testing.T) {
	// Missing ID and Timestamp are filled in on write
	s := openStore(t)

	if err := s.Record(Interaction{Query: "회의실 예약"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(got))
	}
	if got[0].ID == "" || got[0].Timestamp == "" {
		t.Errorf("ID/Timestamp not assigned: %+v", got[0])
	}
	if got[0].Query != "회의실 예약" {
		t.Errorf("got %q", got[0].Query)
	}
}

func TestRecord_PrunesToRetentionCap(t *testing.T) {
	// Writing past the cap drops the oldest interactions
	s := openStore(t)

	for i := 0; i < 15; i++ {
		if err := s.Record(stamped(i, fmt.Sprintf("q%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Recent(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != defaultMaxInteractions {
		t.Fatalf("expected %d interactions after prune, got %d", defaultMaxInteractions, len(got))
	}
	// Newest survives, the first five are gone.
	if got[0].Query != "q14" {
		t.Errorf("newest first: got %q", got[0].Query)
	}
	if got[len(got)-1].Query != "q5" {
		t.Errorf("oldest survivor: got %q", got[len(got)-1].Query)
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	// Recent(n) returns the last n interactions in reverse chronological order
	s := openStore(t)

	for i := 0; i < 5; i++ {
		if err := s.Record(stamped(i, fmt.Sprintf("q%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"q4", "q3", "q2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d, got %d", len(want), len(got))
	}
	for i, q := range want {
		if got[i].Query != q {
			t.Errorf("position %d: got %q, want %q", i, got[i].Query, q)
		}
	}
}

func TestRecent_NLargerThanStore(t *testing.T) {
	// Asking for more than exists returns everything, no error
	s := openStore(t)

	if err := s.Record(stamped(0, "only")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Recent(50)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Query != "only" {
		t.Errorf("got %+v", got)
	}
}

func TestRecent_EmptyStore(t *testing.T) {
	// A fresh store yields no interactions
	s := openStore(t)

	got, err := s.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %+v", got)
	}
}
