package learnstore_test

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/authenticwalk/patternbank/internal/learnstore"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *learnstore.Store {
	t.Helper()
	cfg := learnstore.Config{
		DataDir:          t.TempDir(),
		MaxPatternLength: 2000,
		MaxRecallResults: 20,
		MaxSearchResults: 20,
		MaxChainDepth:    5,
	}
	s, err := learnstore.New(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// observe records a success observation, failing the test on error.
func observe(t *testing.T, s *learnstore.Store, pattern, ns string, outcome learnstore.Outcome) *learnstore.Pattern {
	t.Helper()
	p, err := s.UpsertPattern(learnstore.UpsertParams{
		Pattern:   pattern,
		Namespace: ns,
		Outcome:   outcome,
	})
	if err != nil {
		t.Fatalf("UpsertPattern(%q, %q, %q) error: %v", pattern, ns, outcome, err)
	}
	return p
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := learnstore.DefaultConfig()
	cfg.DataDir = dir

	// Open, insert, close
	s1, err := learnstore.New(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	p1, err := s1.UpsertPattern(learnstore.UpsertParams{
		Pattern: "use table-driven tests",
		Outcome: learnstore.OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s1.Close()

	// Reopen — data should persist
	s2, err := learnstore.New(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetPattern(p1.ID)
	if err != nil {
		t.Fatalf("pattern not found after reopen: %v", err)
	}
	if got.Pattern != "use table-driven tests" {
		t.Errorf("pattern = %q, want %q", got.Pattern, "use table-driven tests")
	}
	if got.Confidence != p1.Confidence {
		t.Errorf("confidence = %v, want %v", got.Confidence, p1.Confidence)
	}
}

// ─── UpsertPattern ──────────────────────────────────────────────────────────

func TestUpsertPattern_FirstObservation(t *testing.T) {
	s := newTestStore(t)

	p := observe(t, s, "run linters before committing", "default", learnstore.OutcomeSuccess)
	if math.Abs(p.Confidence-0.55) > 1e-9 {
		t.Errorf("first success confidence = %v, want 0.55", p.Confidence)
	}
	if p.OccurrenceCount != 1 {
		t.Errorf("occurrence_count = %d, want 1", p.OccurrenceCount)
	}
	if p.Namespace != "default" {
		t.Errorf("namespace = %q, want default", p.Namespace)
	}
	if p.Outcome != string(learnstore.OutcomeSuccess) {
		t.Errorf("outcome = %q, want success", p.Outcome)
	}
}

func TestUpsertPattern_RepeatObservations(t *testing.T) {
	s := newTestStore(t)

	observe(t, s, "pin dependency versions", "default", learnstore.OutcomeSuccess)
	p := observe(t, s, "pin dependency versions", "default", learnstore.OutcomeSuccess)
	if math.Abs(p.Confidence-0.595) > 1e-9 {
		t.Errorf("second success confidence = %v, want 0.595", p.Confidence)
	}
	if p.OccurrenceCount != 2 {
		t.Errorf("occurrence_count = %d, want 2", p.OccurrenceCount)
	}

	p = observe(t, s, "pin dependency versions", "default", learnstore.OutcomeFailure)
	want := 0.595 - 0.595*0.15
	if math.Abs(p.Confidence-want) > 1e-9 {
		t.Errorf("failure confidence = %v, want %v", p.Confidence, want)
	}
	if p.OccurrenceCount != 3 {
		t.Errorf("occurrence_count = %d, want 3", p.OccurrenceCount)
	}
	if p.Outcome != string(learnstore.OutcomeFailure) {
		t.Errorf("outcome = %q, want failure", p.Outcome)
	}
}

func TestUpsertPattern_PendingKeepsConfidence(t *testing.T) {
	s := newTestStore(t)

	p1 := observe(t, s, "prefer context timeouts", "default", learnstore.OutcomeSuccess)
	p2 := observe(t, s, "prefer context timeouts", "default", learnstore.OutcomePending)
	if p2.Confidence != p1.Confidence {
		t.Errorf("pending changed confidence: %v -> %v", p1.Confidence, p2.Confidence)
	}
	if p2.OccurrenceCount != 2 {
		t.Errorf("occurrence_count = %d, want 2", p2.OccurrenceCount)
	}
}

func TestUpsertPattern_NamespaceIsolation(t *testing.T) {
	s := newTestStore(t)

	a := observe(t, s, "same text", "project-a", learnstore.OutcomeSuccess)
	b := observe(t, s, "same text", "project-b", learnstore.OutcomeFailure)
	if a.ID == b.ID {
		t.Fatal("same pattern text in different namespaces must be distinct rows")
	}
	if a.OccurrenceCount != 1 || b.OccurrenceCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", a.OccurrenceCount, b.OccurrenceCount)
	}
}

func TestUpsertPattern_EmptyText(t *testing.T) {
	s := newTestStore(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.UpsertPattern(learnstore.UpsertParams{
			Pattern: text,
			Outcome: learnstore.OutcomeSuccess,
		})
		if !errors.Is(err, learnstore.ErrInvalidInput) {
			t.Errorf("UpsertPattern(%q) error = %v, want ErrInvalidInput", text, err)
		}
	}
}

func TestUpsertPattern_InvalidOutcome(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertPattern(learnstore.UpsertParams{
		Pattern: "some pattern",
		Outcome: learnstore.Outcome("maybe"),
	})
	if !errors.Is(err, learnstore.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestUpsertPattern_ReadYourWrite(t *testing.T) {
	s := newTestStore(t)

	p := observe(t, s, "visible immediately", "default", learnstore.OutcomeSuccess)
	got, err := s.GetPattern(p.ID)
	if err != nil {
		t.Fatalf("GetPattern right after upsert: %v", err)
	}
	if got.Confidence != p.Confidence || got.OccurrenceCount != p.OccurrenceCount {
		t.Errorf("read-your-write mismatch: got %+v, want %+v", got, p)
	}
}

func TestUpsertPattern_ConcurrentSameKey(t *testing.T) {
	s := newTestStore(t)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpsertPattern(learnstore.UpsertParams{
				Pattern:   "contended pattern",
				Namespace: "default",
				Outcome:   learnstore.OutcomeSuccess,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert error: %v", err)
		}
	}

	patterns, err := s.QueryPatterns(learnstore.QueryOptions{Namespaces: []string{"default"}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("got %d rows, want 1", len(patterns))
	}
	if patterns[0].OccurrenceCount != n {
		t.Errorf("occurrence_count = %d, want %d (no lost updates)", patterns[0].OccurrenceCount, n)
	}
	// n successes from the neutral prior: 1 - 0.5 * 0.9^n
	want := 1.0 - 0.5*math.Pow(0.9, n)
	if math.Abs(patterns[0].Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", patterns[0].Confidence, want)
	}
}

// ─── QueryPatterns ──────────────────────────────────────────────────────────

func TestQueryPatterns_OrderingAndFilters(t *testing.T) {
	s := newTestStore(t)

	observe(t, s, "low", "default", learnstore.OutcomeFailure)  // 0.425
	observe(t, s, "mid", "default", learnstore.OutcomeSuccess)  // 0.55
	observe(t, s, "high", "default", learnstore.OutcomeSuccess)
	observe(t, s, "high", "default", learnstore.OutcomeSuccess) // 0.595

	patterns, err := s.QueryPatterns(learnstore.QueryOptions{Namespaces: []string{"default"}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(patterns) != 3 {
		t.Fatalf("got %d patterns, want 3", len(patterns))
	}
	if patterns[0].Pattern != "high" || patterns[1].Pattern != "mid" || patterns[2].Pattern != "low" {
		t.Errorf("order = %q, %q, %q; want high, mid, low",
			patterns[0].Pattern, patterns[1].Pattern, patterns[2].Pattern)
	}

	// Min-confidence filter drops the failure row.
	patterns, err = s.QueryPatterns(learnstore.QueryOptions{
		Namespaces:    []string{"default"},
		MinConfidence: 0.5,
	})
	if err != nil {
		t.Fatalf("query with min confidence: %v", err)
	}
	if len(patterns) != 2 {
		t.Errorf("min_confidence 0.5: got %d, want 2", len(patterns))
	}

	// Limit caps the result.
	patterns, err = s.QueryPatterns(learnstore.QueryOptions{
		Namespaces: []string{"default"},
		Limit:      1,
	})
	if err != nil {
		t.Fatalf("query with limit: %v", err)
	}
	if len(patterns) != 1 || patterns[0].Pattern != "high" {
		t.Errorf("limit 1: got %v", patterns)
	}
}

func TestQueryPatterns_ContextSubstring(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertPattern(learnstore.UpsertParams{
		Pattern: "retry with backoff",
		Context: "http client timeouts",
		Outcome: learnstore.OutcomeSuccess,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertPattern(learnstore.UpsertParams{
		Pattern: "batch writes",
		Context: "database inserts",
		Outcome: learnstore.OutcomeSuccess,
	}); err != nil {
		t.Fatal(err)
	}

	patterns, err := s.QueryPatterns(learnstore.QueryOptions{Context: "http"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(patterns) != 1 || patterns[0].Pattern != "retry with backoff" {
		t.Errorf("context filter: got %v", patterns)
	}
}

func TestQueryPatterns_EmptyResultNotError(t *testing.T) {
	s := newTestStore(t)

	patterns, err := s.QueryPatterns(learnstore.QueryOptions{Namespaces: []string{"nothing-here"}})
	if err != nil {
		t.Fatalf("empty query must not error: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("got %d patterns, want 0", len(patterns))
	}
}

func TestQueryPatterns_InvalidMinConfidence(t *testing.T) {
	s := newTestStore(t)

	for _, v := range []float64{-0.1, 1.1, math.NaN()} {
		if _, err := s.QueryPatterns(learnstore.QueryOptions{MinConfidence: v}); !errors.Is(err, learnstore.ErrInvalidInput) {
			t.Errorf("MinConfidence %v: error = %v, want ErrInvalidInput", v, err)
		}
	}
}

// ─── SearchPatterns ─────────────────────────────────────────────────────────

func TestSearchPatterns_FTS(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertPattern(learnstore.UpsertParams{
		Pattern: "always run migrations inside a transaction",
		Context: "database schema changes",
		Outcome: learnstore.OutcomeSuccess,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertPattern(learnstore.UpsertParams{
		Pattern: "prefer structured logging",
		Context: "observability",
		Outcome: learnstore.OutcomeSuccess,
	}); err != nil {
		t.Fatal(err)
	}

	results, err := s.SearchPatterns("migrations transaction", learnstore.QueryOptions{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Pattern.Pattern != "always run migrations inside a transaction" {
		t.Errorf("got %q", results[0].Pattern.Pattern)
	}

	// Context is searchable too.
	results, err = s.SearchPatterns("observability", learnstore.QueryOptions{})
	if err != nil {
		t.Fatalf("search context: %v", err)
	}
	if len(results) != 1 || results[0].Pattern.Pattern != "prefer structured logging" {
		t.Errorf("context search: got %v", results)
	}
}

func TestSearchPatterns_EmptyQueryFallsBack(t *testing.T) {
	s := newTestStore(t)

	observe(t, s, "fallback pattern", "default", learnstore.OutcomeSuccess)
	results, err := s.SearchPatterns("   ", learnstore.QueryOptions{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("empty query should fall back to ranked query, got %d results", len(results))
	}
}

func TestSearchPatterns_SpecialCharsSafe(t *testing.T) {
	s := newTestStore(t)
	observe(t, s, "quote handling", "default", learnstore.OutcomeSuccess)

	// FTS operators in user input must not break the query.
	for _, q := range []string{`"unbalanced`, `AND OR NOT`, `col:value`} {
		if _, err := s.SearchPatterns(q, learnstore.QueryOptions{}); err != nil {
			t.Errorf("SearchPatterns(%q) error: %v", q, err)
		}
	}
}

// ─── Delete / Archive ───────────────────────────────────────────────────────

func TestDeletePattern(t *testing.T) {
	s := newTestStore(t)

	p := observe(t, s, "doomed", "default", learnstore.OutcomeSuccess)
	if err := s.DeletePattern(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetPattern(p.ID); !errors.Is(err, learnstore.ErrNotFound) {
		t.Errorf("get after delete: error = %v, want ErrNotFound", err)
	}
	if err := s.DeletePattern(p.ID); !errors.Is(err, learnstore.ErrNotFound) {
		t.Errorf("double delete: error = %v, want ErrNotFound", err)
	}
}

func TestDeletePattern_NullsFailureRefs(t *testing.T) {
	s := newTestStore(t)

	p := observe(t, s, "risky approach", "default", learnstore.OutcomeFailure)
	f, err := s.RecordFailure(learnstore.FailureParams{
		ErrorType: "test_failure",
		PatternID: &p.ID,
	})
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if err := s.DeletePattern(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	failures, err := s.FailuresByType("test_failure", 0)
	if err != nil {
		t.Fatalf("failures by type: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("failure record must survive pattern deletion, got %d", len(failures))
	}
	if failures[0].FailureID != f.FailureID {
		t.Errorf("failure id = %d, want %d", failures[0].FailureID, f.FailureID)
	}
	if failures[0].PatternID != nil {
		t.Errorf("pattern_id should be NULL after delete, got %v", *failures[0].PatternID)
	}
}

func TestArchivePattern(t *testing.T) {
	s := newTestStore(t)

	p := observe(t, s, "old but gold", "default", learnstore.OutcomeSuccess)
	if err := s.ArchivePattern(p.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := s.GetPattern(p.ID); !errors.Is(err, learnstore.ErrNotFound) {
		t.Errorf("get after archive: error = %v, want ErrNotFound", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ArchivedPatterns != 1 {
		t.Errorf("archived = %d, want 1", stats.ArchivedPatterns)
	}
	if stats.TotalPatterns != 0 {
		t.Errorf("total = %d, want 0", stats.TotalPatterns)
	}

	if err := s.ArchivePattern(p.ID); !errors.Is(err, learnstore.ErrNotFound) {
		t.Errorf("double archive: error = %v, want ErrNotFound", err)
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		observe(t, s, fmt.Sprintf("pattern %d", i), "default", learnstore.OutcomeSuccess)
	}
	observe(t, s, "other scope", "project-x", learnstore.OutcomeSuccess)
	if _, err := s.RecordFailure(learnstore.FailureParams{ErrorType: "timeout"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalPatterns != 4 {
		t.Errorf("total patterns = %d, want 4", stats.TotalPatterns)
	}
	if stats.TotalFailures != 1 || stats.UnresolvedFailures != 1 {
		t.Errorf("failures = %d/%d, want 1/1", stats.TotalFailures, stats.UnresolvedFailures)
	}
	if stats.AvgConfidence <= 0.5 {
		t.Errorf("avg confidence = %v, want > 0.5 after successes", stats.AvgConfidence)
	}
	if len(stats.Namespaces) != 2 {
		t.Errorf("namespaces = %v, want 2 entries", stats.Namespaces)
	}
}
