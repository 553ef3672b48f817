package learnstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/authenticwalk/patternbank/internal/learnstore"
)

func TestRecordFailure_Basic(t *testing.T) {
	s := newTestStore(t)

	f, err := s.RecordFailure(learnstore.FailureParams{
		Context:      "deploying service",
		ErrorType:    "timeout",
		ErrorMessage: "context deadline exceeded",
	})
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if f.FailureID == 0 {
		t.Error("failure id not assigned")
	}
	if f.Resolved {
		t.Error("new failure must be unresolved")
	}
	if f.ResolutionPatternID != nil {
		t.Error("new failure must have no resolution pattern")
	}
	if f.OccurredAt == "" {
		t.Error("occurred_at not set")
	}
}

func TestRecordFailure_EmptyType(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "  "})
	if !errors.Is(err, learnstore.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestRecordFailure_UnknownPatternRef(t *testing.T) {
	s := newTestStore(t)

	bogus := int64(9999)
	_, err := s.RecordFailure(learnstore.FailureParams{
		ErrorType: "timeout",
		PatternID: &bogus,
	})
	if !errors.Is(err, learnstore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFailuresByType_OrderedOldestFirst(t *testing.T) {
	s := newTestStore(t)

	var ids []int64
	for _, msg := range []string{"first", "second", "third"} {
		f, err := s.RecordFailure(learnstore.FailureParams{
			ErrorType:    "flaky_test",
			ErrorMessage: msg,
		})
		if err != nil {
			t.Fatalf("record %q: %v", msg, err)
		}
		ids = append(ids, f.FailureID)
	}
	// Unrelated type should not show up.
	if _, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "oom"}); err != nil {
		t.Fatal(err)
	}

	failures, err := s.FailuresByType("flaky_test", 0)
	if err != nil {
		t.Fatalf("failures by type: %v", err)
	}
	if len(failures) != 3 {
		t.Fatalf("got %d failures, want 3", len(failures))
	}
	for i, f := range failures {
		if f.FailureID != ids[i] {
			t.Errorf("position %d: id = %d, want %d (oldest first)", i, f.FailureID, ids[i])
		}
	}
	if failures[0].ErrorMessage != "first" || failures[2].ErrorMessage != "third" {
		t.Errorf("messages out of order: %q ... %q", failures[0].ErrorMessage, failures[2].ErrorMessage)
	}
}

func TestFailuresByType_Window(t *testing.T) {
	s := newTestStore(t)

	old, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "stale", ErrorMessage: "ancient"})
	if err != nil {
		t.Fatal(err)
	}
	// Backdate beyond the window via the test backdoor.
	if _, err := s.DB().Exec(
		`UPDATE failures SET occurred_at = datetime('now', '-10 days') WHERE failure_id = ?`,
		old.FailureID,
	); err != nil {
		t.Fatalf("backdate: %v", err)
	}
	if _, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "stale", ErrorMessage: "recent"}); err != nil {
		t.Fatal(err)
	}

	failures, err := s.FailuresByType("stale", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("windowed query: %v", err)
	}
	if len(failures) != 1 || failures[0].ErrorMessage != "recent" {
		t.Errorf("window filter: got %v", failures)
	}

	// Zero window means everything.
	failures, err = s.FailuresByType("stale", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 2 {
		t.Errorf("unwindowed: got %d, want 2", len(failures))
	}
}

func TestMarkResolved(t *testing.T) {
	s := newTestStore(t)

	f, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "import_cycle"})
	if err != nil {
		t.Fatal(err)
	}
	fix := observe(t, s, "extract shared types into their own package", "default", learnstore.OutcomeSuccess)

	if err := s.MarkResolved(f.FailureID, fix.ID); err != nil {
		t.Fatalf("mark resolved: %v", err)
	}

	failures, err := s.FailuresByType("import_cycle", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	got := failures[0]
	if !got.Resolved {
		t.Error("failure should be resolved")
	}
	// Invariant: resolved implies resolution pattern set.
	if got.ResolutionPatternID == nil || *got.ResolutionPatternID != fix.ID {
		t.Errorf("resolution_pattern_id = %v, want %d", got.ResolutionPatternID, fix.ID)
	}
}

func TestMarkResolved_UnknownFailure(t *testing.T) {
	s := newTestStore(t)

	fix := observe(t, s, "a fix", "default", learnstore.OutcomeSuccess)
	if err := s.MarkResolved(12345, fix.ID); !errors.Is(err, learnstore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestMarkResolved_UnknownResolutionPattern(t *testing.T) {
	s := newTestStore(t)

	f, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "oom"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MarkResolved(f.FailureID, 9999); !errors.Is(err, learnstore.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	// And the failure stays unresolved.
	failures, _ := s.FailuresByType("oom", 0)
	if len(failures) != 1 || failures[0].Resolved {
		t.Error("failure must remain unresolved after failed MarkResolved")
	}
}

func TestUnresolvedFailures(t *testing.T) {
	s := newTestStore(t)

	f1, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "b"}); err != nil {
		t.Fatal(err)
	}
	fix := observe(t, s, "fix for a", "default", learnstore.OutcomeSuccess)
	if err := s.MarkResolved(f1.FailureID, fix.ID); err != nil {
		t.Fatal(err)
	}

	open, err := s.UnresolvedFailures(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].ErrorType != "b" {
		t.Errorf("unresolved = %v, want only type b", open)
	}
}
