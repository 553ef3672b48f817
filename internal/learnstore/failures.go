package learnstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Failure is an append-only record of something that went wrong during a
// task. Failures are never deleted: they are the raw training signal the
// consolidator and recall surface mine for recurring error classes.
type Failure struct {
	FailureID           int64  `json:"failure_id"`
	PatternID           *int64 `json:"pattern_id,omitempty"`
	Context             string `json:"context,omitempty"`
	ErrorType           string `json:"error_type"`
	ErrorMessage        string `json:"error_message,omitempty"`
	OccurredAt          string `json:"occurred_at"`
	Resolved            bool   `json:"resolved"`
	ResolutionPatternID *int64 `json:"resolution_pattern_id,omitempty"`
}

// FailureParams holds the input for recording a failure.
type FailureParams struct {
	Context      string `json:"context,omitempty"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message,omitempty"`
	// PatternID optionally links the failure to the pattern that was being
	// applied when it occurred.
	PatternID *int64 `json:"pattern_id,omitempty"`
}

// RecordFailure appends a failure record. ErrorType is required; an
// optional pattern reference must exist.
func (s *Store) RecordFailure(p FailureParams) (*Failure, error) {
	errorType := strings.TrimSpace(p.ErrorType)
	if errorType == "" {
		return nil, fmt.Errorf("%w: error type is empty", ErrInvalidInput)
	}
	if p.PatternID != nil {
		if err := s.patternExists(*p.PatternID); err != nil {
			return nil, err
		}
	}

	row := s.db.QueryRow(
		`INSERT INTO failures (pattern_id, context, error_type, error_message)
		 VALUES (?, ?, ?, ?)
		 RETURNING failure_id, pattern_id, context, error_type, error_message, occurred_at, resolved, resolution_pattern_id`,
		nullableID(p.PatternID), strings.TrimSpace(p.Context), errorType, strings.TrimSpace(p.ErrorMessage),
	)
	return scanFailureRow(row)
}

// MarkResolved links a failure to the pattern that fixed it. Returns
// ErrNotFound for an unknown failure id or resolution pattern; marking an
// already-resolved failure again just updates the resolution reference.
func (s *Store) MarkResolved(failureID, resolutionPatternID int64) error {
	if err := s.patternExists(resolutionPatternID); err != nil {
		return err
	}
	res, err := s.execHook(s.db,
		`UPDATE failures SET resolved = 1, resolution_pattern_id = ? WHERE failure_id = ?`,
		resolutionPatternID, failureID,
	)
	if err != nil {
		return fmt.Errorf("learnstore: mark resolved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: failure %d", ErrNotFound, failureID)
	}
	return nil
}

// FailuresByType returns failures of a given error type, oldest first so
// the caller sees how the error class evolved. A zero window means no time
// filter; otherwise only failures within the window are returned.
func (s *Store) FailuresByType(errorType string, window time.Duration) ([]Failure, error) {
	errorType = strings.TrimSpace(errorType)
	if errorType == "" {
		return nil, fmt.Errorf("%w: error type is empty", ErrInvalidInput)
	}

	query := `
		SELECT failure_id, pattern_id, context, error_type, error_message, occurred_at, resolved, resolution_pattern_id
		FROM failures
		WHERE error_type = ?
	`
	args := []any{errorType}
	if window > 0 {
		query += " AND occurred_at >= datetime('now', ?)"
		args = append(args, retentionExpression(window))
	}
	query += " ORDER BY occurred_at ASC, failure_id ASC"

	rows, err := s.queryHook(s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("learnstore: failures by type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Failure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *f)
	}
	return results, rows.Err()
}

// UnresolvedFailures returns unresolved failures, most recent first.
func (s *Store) UnresolvedFailures(limit int) ([]Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.queryHook(s.db, `
		SELECT failure_id, pattern_id, context, error_type, error_message, occurred_at, resolved, resolution_pattern_id
		FROM failures
		WHERE resolved = 0
		ORDER BY occurred_at DESC, failure_id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("learnstore: unresolved failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Failure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *f)
	}
	return results, rows.Err()
}

// resolveMatching marks unresolved failures whose context matches the given
// context as resolved by the pattern. Best-effort: returns the number
// resolved, swallowing nothing — callers decide whether errors matter.
func (s *Store) resolveMatching(context string, resolutionPatternID int64) (int64, error) {
	context = strings.TrimSpace(context)
	if context == "" {
		return 0, nil
	}
	res, err := s.execHook(s.db,
		`UPDATE failures SET resolved = 1, resolution_pattern_id = ?
		 WHERE resolved = 0 AND context = ?`,
		resolutionPatternID, context,
	)
	if err != nil {
		return 0, fmt.Errorf("learnstore: resolve matching: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) patternExists(id int64) error {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM patterns WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: pattern %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("learnstore: check pattern: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFailure(r rowScanner) (*Failure, error) {
	var f Failure
	var patternID, resolutionID sql.NullInt64
	var resolved int
	if err := r.Scan(
		&f.FailureID, &patternID, &f.Context, &f.ErrorType, &f.ErrorMessage,
		&f.OccurredAt, &resolved, &resolutionID,
	); err != nil {
		return nil, err
	}
	f.Resolved = resolved != 0
	if patternID.Valid {
		f.PatternID = &patternID.Int64
	}
	if resolutionID.Valid {
		f.ResolutionPatternID = &resolutionID.Int64
	}
	return &f, nil
}

func scanFailureRow(row *sql.Row) (*Failure, error) {
	f, err := scanFailure(row)
	if err != nil {
		return nil, fmt.Errorf("learnstore: record failure: %w", err)
	}
	return f, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
