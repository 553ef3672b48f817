// Package learnstore implements the persistent pattern-learning engine for
// Patternbank.
//
// It uses SQLite with FTS5 full-text search to store behavioral patterns
// observed across AI coding sessions, each carrying a confidence score that
// evolves with recorded outcomes. Companion tables hold failure records,
// cause→effect links, and the namespace hierarchy that scopes pattern
// queries.
package learnstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Pattern is a stored behavioral observation with an evolving confidence
// score, unique per (pattern text, namespace).
type Pattern struct {
	ID              int64   `json:"id"`
	Pattern         string  `json:"pattern"`
	Context         string  `json:"context,omitempty"`
	Confidence      float64 `json:"confidence"`
	Outcome         string  `json:"outcome"`
	OccurrenceCount int     `json:"occurrence_count"`
	Namespace       string  `json:"namespace"`
	CreatedAt       string  `json:"created_at"`
	LastUsed        string  `json:"last_used"`
}

// SearchResult embeds a Pattern with its FTS5 rank score.
type SearchResult struct {
	Pattern
	Rank float64 `json:"rank"`
}

// UpsertParams holds the input for observing a pattern.
type UpsertParams struct {
	Pattern   string  `json:"pattern"`
	Namespace string  `json:"namespace,omitempty"`
	Context   string  `json:"context,omitempty"`
	Outcome   Outcome `json:"outcome"`
}

// QueryOptions holds filters for ranked pattern queries.
type QueryOptions struct {
	// Context, when set, filters by substring match on the context column.
	Context string `json:"context,omitempty"`
	// Namespaces restricts results to the given namespace set, typically
	// a resolved chain (specific → root). Empty means no namespace filter.
	Namespaces    []string `json:"namespaces,omitempty"`
	MinConfidence float64  `json:"min_confidence,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	TotalPatterns      int      `json:"total_patterns"`
	ArchivedPatterns   int      `json:"archived_patterns"`
	TotalFailures      int      `json:"total_failures"`
	UnresolvedFailures int      `json:"unresolved_failures"`
	TotalCausalLinks   int      `json:"total_causal_links"`
	TotalNamespaces    int      `json:"total_namespaces"`
	AvgConfidence      float64  `json:"avg_confidence"`
	Namespaces         []string `json:"namespaces,omitempty"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds learning store configuration.
type Config struct {
	DataDir          string
	MaxPatternLength int
	MaxRecallResults int
	MaxSearchResults int
	MaxChainDepth    int
}

// DefaultConfig returns the default configuration for the learning store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".patternbank"),
		MaxPatternLength: 2000,
		MaxRecallResults: 20,
		MaxSearchResults: 20,
		MaxChainDepth:    5,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent learning engine backed by SQLite + FTS5.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	query   func(db queryer, query string, args ...any) (*sql.Rows, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		exec: func(db execer, query string, args ...any) (sql.Result, error) {
			return db.Exec(query, args...)
		},
		query: func(db queryer, query string, args ...any) (*sql.Rows, error) {
			return db.Query(query, args...)
		},
		beginTx: func(db *sql.DB) (*sql.Tx, error) {
			return db.Begin()
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryHook(db queryer, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(db, query, args...)
	}
	return db.Query(query, args...)
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("learnstore: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "patterns.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("learnstore: open database: %w", err)
	}

	// SQLite performance pragmas. foreign_keys is required: failure
	// references must null out when a pattern is deleted.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("learnstore: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, hooks: defaultStoreHooks()}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("learnstore: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Config returns the store configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS namespaces (
			name             TEXT PRIMARY KEY,
			parent_namespace TEXT REFERENCES namespaces(name),
			description      TEXT
		);

		CREATE TABLE IF NOT EXISTS patterns (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			pattern          TEXT    NOT NULL,
			context          TEXT    NOT NULL DEFAULT '',
			confidence       REAL    NOT NULL DEFAULT 0.5,
			outcome          TEXT    NOT NULL DEFAULT 'pending',
			occurrence_count INTEGER NOT NULL DEFAULT 1,
			namespace        TEXT    NOT NULL DEFAULT 'default',
			created_at       TEXT    NOT NULL DEFAULT (datetime('now')),
			last_used        TEXT    NOT NULL DEFAULT (datetime('now')),
			UNIQUE (pattern, namespace)
		);

		CREATE INDEX IF NOT EXISTS idx_patterns_namespace  ON patterns(namespace);
		CREATE INDEX IF NOT EXISTS idx_patterns_confidence ON patterns(confidence DESC);
		CREATE INDEX IF NOT EXISTS idx_patterns_last_used  ON patterns(last_used);

		CREATE VIRTUAL TABLE IF NOT EXISTS patterns_fts USING fts5(
			pattern,
			context,
			namespace,
			content='patterns',
			content_rowid='id'
		);

		CREATE TABLE IF NOT EXISTS patterns_archive (
			id               INTEGER PRIMARY KEY,
			pattern          TEXT    NOT NULL,
			context          TEXT    NOT NULL DEFAULT '',
			confidence       REAL    NOT NULL,
			outcome          TEXT    NOT NULL,
			occurrence_count INTEGER NOT NULL,
			namespace        TEXT    NOT NULL,
			created_at       TEXT    NOT NULL,
			last_used        TEXT    NOT NULL,
			archived_at      TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS failures (
			failure_id            INTEGER PRIMARY KEY AUTOINCREMENT,
			pattern_id            INTEGER REFERENCES patterns(id) ON DELETE SET NULL,
			context               TEXT    NOT NULL DEFAULT '',
			error_type            TEXT    NOT NULL,
			error_message         TEXT    NOT NULL DEFAULT '',
			occurred_at           TEXT    NOT NULL DEFAULT (datetime('now')),
			resolved              INTEGER NOT NULL DEFAULT 0,
			resolution_pattern_id INTEGER REFERENCES patterns(id) ON DELETE SET NULL
		);

		CREATE INDEX IF NOT EXISTS idx_failures_type     ON failures(error_type);
		CREATE INDEX IF NOT EXISTS idx_failures_occurred ON failures(occurred_at DESC);
		CREATE INDEX IF NOT EXISTS idx_failures_resolved ON failures(resolved);

		CREATE TABLE IF NOT EXISTS causal_links (
			link_id        INTEGER PRIMARY KEY AUTOINCREMENT,
			cause          TEXT    NOT NULL,
			effect         TEXT    NOT NULL,
			link_type      TEXT    NOT NULL DEFAULT 'causal',
			confidence     REAL    NOT NULL DEFAULT 0.5,
			evidence_count INTEGER NOT NULL DEFAULT 1,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at     TEXT    NOT NULL DEFAULT (datetime('now')),
			UNIQUE (cause, effect, link_type)
		);

		CREATE INDEX IF NOT EXISTS idx_causal_effect ON causal_links(effect);
		CREATE INDEX IF NOT EXISTS idx_causal_cause  ON causal_links(cause);
	`
	if _, err := s.execHook(s.db, schema); err != nil {
		return err
	}

	// FTS triggers (idempotent)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='patterns_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER patterns_fts_insert AFTER INSERT ON patterns BEGIN
				INSERT INTO patterns_fts(rowid, pattern, context, namespace)
				VALUES (new.id, new.pattern, new.context, new.namespace);
			END;

			CREATE TRIGGER patterns_fts_delete AFTER DELETE ON patterns BEGIN
				INSERT INTO patterns_fts(patterns_fts, rowid, pattern, context, namespace)
				VALUES ('delete', old.id, old.pattern, old.context, old.namespace);
			END;

			CREATE TRIGGER patterns_fts_update AFTER UPDATE ON patterns BEGIN
				INSERT INTO patterns_fts(patterns_fts, rowid, pattern, context, namespace)
				VALUES ('delete', old.id, old.pattern, old.context, old.namespace);
				INSERT INTO patterns_fts(rowid, pattern, context, namespace)
				VALUES (new.id, new.pattern, new.context, new.namespace);
			END;
		`
		if _, err := s.execHook(s.db, triggers); err != nil {
			return err
		}
	} else if err != nil && err != sql.ErrNoRows {
		return err
	}

	return nil
}

// ─── Patterns ────────────────────────────────────────────────────────────────

// UpsertPattern records an observation of a pattern. A new (pattern,
// namespace) key is created from the neutral prior 0.5 with the outcome
// applied once; an existing key gets its confidence updated, its occurrence
// count incremented, and its outcome/last_used refreshed.
//
// The whole operation is a single SQL statement, so concurrent upserts on
// the same key serialize inside SQLite — interleaved callers cannot drop
// each other's confidence updates.
func (s *Store) UpsertPattern(p UpsertParams) (*Pattern, error) {
	text := strings.TrimSpace(p.Pattern)
	if text == "" {
		return nil, fmt.Errorf("%w: pattern text is empty", ErrInvalidInput)
	}
	if len(text) > s.cfg.MaxPatternLength {
		text = text[:s.cfg.MaxPatternLength]
	}
	outcome, err := ParseOutcome(string(p.Outcome))
	if err != nil {
		return nil, err
	}
	ns := normalizeNamespace(p.Namespace)
	context := strings.TrimSpace(p.Context)

	row := s.db.QueryRow(
		`INSERT INTO patterns (pattern, namespace, context, outcome, confidence)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(pattern, namespace) DO UPDATE SET
			confidence = CASE excluded.outcome
				WHEN 'success' THEN min(1.0, confidence + (1.0 - confidence) * ?)
				WHEN 'failure' THEN max(0.0, confidence - confidence * ?)
				ELSE confidence END,
			outcome          = excluded.outcome,
			occurrence_count = occurrence_count + 1,
			context          = CASE WHEN excluded.context != '' THEN excluded.context ELSE context END,
			last_used        = datetime('now')
		 RETURNING id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used`,
		text, ns, context, string(outcome), UpdateConfidence(neutralPrior, outcome),
		successRate, failurePenalty,
	)

	var pat Pattern
	if err := row.Scan(
		&pat.ID, &pat.Pattern, &pat.Context, &pat.Confidence, &pat.Outcome,
		&pat.OccurrenceCount, &pat.Namespace, &pat.CreatedAt, &pat.LastUsed,
	); err != nil {
		return nil, fmt.Errorf("learnstore: upsert pattern: %w", err)
	}
	return &pat, nil
}

// GetPattern retrieves a single pattern by ID and refreshes its last_used
// timestamp (reads count as touches for retention purposes).
func (s *Store) GetPattern(id int64) (*Pattern, error) {
	row := s.db.QueryRow(
		`SELECT id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used
		 FROM patterns WHERE id = ?`, id,
	)
	var p Pattern
	if err := row.Scan(
		&p.ID, &p.Pattern, &p.Context, &p.Confidence, &p.Outcome,
		&p.OccurrenceCount, &p.Namespace, &p.CreatedAt, &p.LastUsed,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: pattern %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("learnstore: get pattern: %w", err)
	}
	s.touchPatterns(p.ID)
	return &p, nil
}

// QueryPatterns returns patterns matching the filters, ordered by confidence
// descending, ties broken by occurrence count then most-recent last_used.
// An empty result is not an error.
func (s *Store) QueryPatterns(opts QueryOptions) ([]Pattern, error) {
	if !validConfidence(opts.MinConfidence) {
		return nil, fmt.Errorf("%w: min confidence %v out of range", ErrInvalidInput, opts.MinConfidence)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.MaxRecallResults
	}

	query := `
		SELECT id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used
		FROM patterns
		WHERE confidence >= ?
	`
	args := []any{opts.MinConfidence}

	if len(opts.Namespaces) > 0 {
		query += " AND namespace IN (" + placeholders(len(opts.Namespaces)) + ")"
		for _, ns := range opts.Namespaces {
			args = append(args, normalizeNamespace(ns))
		}
	}
	if opts.Context != "" {
		query += " AND context LIKE '%' || ? || '%'"
		args = append(args, opts.Context)
	}

	query += ` ORDER BY confidence DESC, occurrence_count DESC, datetime(last_used) DESC LIMIT ?`
	args = append(args, limit)

	patterns, err := s.queryPatterns(query, args...)
	if err != nil {
		return nil, fmt.Errorf("learnstore: query patterns: %w", err)
	}

	ids := make([]int64, len(patterns))
	for i, p := range patterns {
		ids[i] = p.ID
	}
	s.touchPatterns(ids...)
	return patterns, nil
}

// SearchPatterns performs full-text search across pattern text and context.
// An empty or whitespace-only query falls back to a ranked QueryPatterns.
func (s *Store) SearchPatterns(query string, opts QueryOptions) ([]SearchResult, error) {
	if !validConfidence(opts.MinConfidence) {
		return nil, fmt.Errorf("%w: min confidence %v out of range", ErrInvalidInput, opts.MinConfidence)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		opts.Limit = limit
		patterns, err := s.QueryPatterns(opts)
		if err != nil {
			return nil, err
		}
		results := make([]SearchResult, len(patterns))
		for i, p := range patterns {
			results[i] = SearchResult{Pattern: p}
		}
		return results, nil
	}

	sqlStr := `
		SELECT p.id, p.pattern, p.context, p.confidence, p.outcome, p.occurrence_count,
		       p.namespace, p.created_at, p.last_used, fts.rank
		FROM patterns_fts fts
		JOIN patterns p ON p.id = fts.rowid
		WHERE patterns_fts MATCH ? AND p.confidence >= ?
	`
	args := []any{ftsQuery, opts.MinConfidence}

	if len(opts.Namespaces) > 0 {
		sqlStr += " AND p.namespace IN (" + placeholders(len(opts.Namespaces)) + ")"
		for _, ns := range opts.Namespaces {
			args = append(args, normalizeNamespace(ns))
		}
	}

	sqlStr += " ORDER BY fts.rank, p.confidence DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.queryHook(s.db, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("learnstore: search patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	var ids []int64
	for rows.Next() {
		var sr SearchResult
		if err := rows.Scan(
			&sr.ID, &sr.Pattern.Pattern, &sr.Context, &sr.Confidence, &sr.Outcome,
			&sr.OccurrenceCount, &sr.Namespace, &sr.CreatedAt, &sr.LastUsed, &sr.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, sr)
		ids = append(ids, sr.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.touchPatterns(ids...)
	return results, nil
}

// DeletePattern hard-deletes a pattern. Failure references are nulled out by
// the foreign key constraints; failures themselves are never deleted.
// Used by the Consolidator.
func (s *Store) DeletePattern(id int64) error {
	res, err := s.execHook(s.db, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("learnstore: delete pattern: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: pattern %d", ErrNotFound, id)
	}
	return nil
}

// ArchivePattern moves a pattern into the archive table, preserving history
// without polluting hot queries. Used by the Consolidator.
func (s *Store) ArchivePattern(id int64) error {
	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("learnstore: archive pattern: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := s.execHook(tx,
		`INSERT INTO patterns_archive (id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used)
		 SELECT id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used
		 FROM patterns WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("learnstore: archive pattern: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: pattern %d", ErrNotFound, id)
	}
	if _, err := s.execHook(tx, `DELETE FROM patterns WHERE id = ?`, id); err != nil {
		return fmt.Errorf("learnstore: archive pattern: delete: %w", err)
	}
	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("learnstore: archive pattern: commit: %w", err)
	}
	return nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate store statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRow("SELECT COUNT(*) FROM patterns").Scan(&stats.TotalPatterns)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM patterns_archive").Scan(&stats.ArchivedPatterns)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM failures").Scan(&stats.TotalFailures)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM failures WHERE resolved = 0").Scan(&stats.UnresolvedFailures)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM causal_links").Scan(&stats.TotalCausalLinks)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM namespaces").Scan(&stats.TotalNamespaces)
	_ = s.db.QueryRow("SELECT COALESCE(AVG(confidence), 0) FROM patterns").Scan(&stats.AvgConfidence)

	rows, err := s.queryHook(s.db,
		"SELECT namespace FROM patterns GROUP BY namespace ORDER BY MAX(last_used) DESC")
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err == nil {
			stats.Namespaces = append(stats.Namespaces, ns)
		}
	}

	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) queryPatterns(query string, args ...any) ([]Pattern, error) {
	rows, err := s.queryHook(s.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []Pattern
	for rows.Next() {
		var p Pattern
		if err := rows.Scan(
			&p.ID, &p.Pattern, &p.Context, &p.Confidence, &p.Outcome,
			&p.OccurrenceCount, &p.Namespace, &p.CreatedAt, &p.LastUsed,
		); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// touchPatterns refreshes last_used on read. Best-effort: a failed touch
// never fails the read that triggered it.
func (s *Store) touchPatterns(ids ...int64) {
	if len(ids) == 0 {
		return
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, _ = s.execHook(s.db,
		`UPDATE patterns SET last_used = datetime('now') WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func normalizeNamespace(ns string) string {
	v := strings.TrimSpace(strings.ToLower(ns))
	if v == "" {
		return "default"
	}
	return v
}

// Truncate shortens a string to max length with ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func hashNormalized(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "fix auth bug" → `"fix" "auth" "bug"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

// retentionExpression converts a duration into a SQLite datetime modifier,
// e.g. 90 days → "-90 days". Sub-day windows round down to minutes.
func retentionExpression(window time.Duration) string {
	if window >= 24*time.Hour {
		days := int(window.Hours() / 24)
		return "-" + strconv.Itoa(days) + " days"
	}
	minutes := int(window.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return "-" + strconv.Itoa(minutes) + " minutes"
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
