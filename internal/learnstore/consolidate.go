package learnstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SimilarityFunc decides whether two pattern texts describe the same
// behavior. The default compares whitespace/case-normalized text; hosts
// with an embedding model can inject a semantic predicate.
type SimilarityFunc func(a, b string) bool

// ConsolidateConfig holds retention tuning for a consolidation run.
type ConsolidateConfig struct {
	// PruneWindow is how long a low-confidence pattern must sit unused
	// before pruning removes it.
	PruneWindow time.Duration
	// ArchiveWindow is how long any pattern must sit unused before it is
	// moved to the archive table.
	ArchiveWindow time.Duration
	// PruneConfidence is the confidence ceiling for pruning.
	PruneConfidence float64
	// MinObservations is the occurrence floor: a pattern observed fewer
	// times has not been given a fair chance and is left alone.
	MinObservations int
}

// DefaultConsolidateConfig returns the standard retention windows.
func DefaultConsolidateConfig() ConsolidateConfig {
	return ConsolidateConfig{
		PruneWindow:     90 * 24 * time.Hour,
		ArchiveWindow:   180 * 24 * time.Hour,
		PruneConfidence: 0.3,
		MinObservations: 3,
	}
}

// ConsolidateReport summarizes what one consolidation run did.
type ConsolidateReport struct {
	RunID        string `json:"run_id"`
	Merged       int    `json:"merged"`
	Pruned       int    `json:"pruned"`
	CausalPruned int    `json:"causal_pruned"`
	Archived     int    `json:"archived"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at"`
}

// Consolidator runs periodic store maintenance: merge near-duplicate
// patterns, prune low-value ones, drop weak causal edges, and archive
// stale rows. Runs are idempotent; a second run over unchanged data is a
// no-op.
type Consolidator struct {
	store   *Store
	cfg     ConsolidateConfig
	similar SimilarityFunc
}

// NewConsolidator creates a Consolidator with the default similarity
// predicate (normalized-text equality).
func NewConsolidator(store *Store, cfg ConsolidateConfig) *Consolidator {
	return &Consolidator{
		store: store,
		cfg:   cfg,
		similar: func(a, b string) bool {
			return hashNormalized(a) == hashNormalized(b)
		},
	}
}

// SetSimilarity replaces the duplicate-detection predicate.
func (c *Consolidator) SetSimilarity(fn SimilarityFunc) {
	if fn != nil {
		c.similar = fn
	}
}

// Run executes one consolidation pass. Only one run may execute at a time
// per data directory; a concurrent run fails fast with ErrConsolidateLocked.
func (c *Consolidator) Run() (*ConsolidateReport, error) {
	unlock, err := c.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &ConsolidateReport{
		RunID:     uuid.NewString(),
		StartedAt: Now(),
	}

	if err := c.mergeDuplicates(report); err != nil {
		return nil, fmt.Errorf("learnstore: consolidate: merge: %w", err)
	}
	if err := c.prune(report); err != nil {
		return nil, fmt.Errorf("learnstore: consolidate: prune: %w", err)
	}
	if err := c.pruneCausal(report); err != nil {
		return nil, fmt.Errorf("learnstore: consolidate: causal prune: %w", err)
	}
	if err := c.archiveStale(report); err != nil {
		return nil, fmt.Errorf("learnstore: consolidate: archive: %w", err)
	}

	report.FinishedAt = Now()
	return report, nil
}

// acquireLock takes the advisory lock file in the data dir. O_EXCL makes
// creation atomic; a leftover lock from a crashed run must be removed by
// hand (the lock carries the owning run's pid for diagnosis).
func (c *Consolidator) acquireLock() (func(), error) {
	lockPath := filepath.Join(c.store.cfg.DataDir, "consolidate.lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrConsolidateLocked, lockPath)
		}
		return nil, fmt.Errorf("learnstore: consolidate: lock: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	_ = f.Close()
	return func() { _ = os.Remove(lockPath) }, nil
}

// mergeDuplicates folds pairs of similar patterns within each namespace
// into the older row: averaged confidence, summed occurrence counts, and
// failure references repointed before the duplicate is deleted.
func (c *Consolidator) mergeDuplicates(report *ConsolidateReport) error {
	patterns, err := c.store.queryPatterns(`
		SELECT id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used
		FROM patterns
		ORDER BY namespace, created_at ASC, id ASC`)
	if err != nil {
		return err
	}

	merged := make(map[int64]bool)
	for i := 0; i < len(patterns); i++ {
		keep := patterns[i]
		if merged[keep.ID] {
			continue
		}
		for j := i + 1; j < len(patterns); j++ {
			dup := patterns[j]
			if merged[dup.ID] || dup.Namespace != keep.Namespace || dup.ID == keep.ID {
				continue
			}
			if !c.similar(keep.Pattern, dup.Pattern) {
				continue
			}
			if err := c.mergePair(&keep, dup); err != nil {
				return err
			}
			merged[dup.ID] = true
			report.Merged++
		}
	}
	return nil
}

// mergePair folds dup into keep inside one transaction. keep is updated in
// place so chained merges compound correctly.
func (c *Consolidator) mergePair(keep *Pattern, dup Pattern) error {
	tx, err := c.store.beginTxHook()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	newConfidence := (keep.Confidence + dup.Confidence) / 2.0
	newCount := keep.OccurrenceCount + dup.OccurrenceCount

	if _, err := c.store.execHook(tx,
		`UPDATE patterns SET confidence = ?, occurrence_count = ?,
			last_used = max(last_used, (SELECT last_used FROM patterns WHERE id = ?))
		 WHERE id = ?`,
		newConfidence, newCount, dup.ID, keep.ID,
	); err != nil {
		return err
	}
	if _, err := c.store.execHook(tx,
		`UPDATE failures SET pattern_id = ? WHERE pattern_id = ?`, keep.ID, dup.ID,
	); err != nil {
		return err
	}
	if _, err := c.store.execHook(tx,
		`UPDATE failures SET resolution_pattern_id = ? WHERE resolution_pattern_id = ?`, keep.ID, dup.ID,
	); err != nil {
		return err
	}
	if _, err := c.store.execHook(tx, `DELETE FROM patterns WHERE id = ?`, dup.ID); err != nil {
		return err
	}
	if err := c.store.commitHook(tx); err != nil {
		return err
	}

	keep.Confidence = newConfidence
	keep.OccurrenceCount = newCount
	return nil
}

// prune deletes patterns that have been observed enough times to be judged,
// sit below the confidence ceiling, and have not been used within the prune
// window. Failure references null out via the foreign keys.
func (c *Consolidator) prune(report *ConsolidateReport) error {
	res, err := c.store.execHook(c.store.db, `
		DELETE FROM patterns
		WHERE confidence < ?
		  AND occurrence_count >= ?
		  AND datetime(last_used) < datetime('now', ?)`,
		c.cfg.PruneConfidence, c.cfg.MinObservations, retentionExpression(c.cfg.PruneWindow),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	report.Pruned += int(n)
	return nil
}

// pruneCausal drops causal edges that stayed weak despite enough evidence
// and have not been reinforced within the prune window.
func (c *Consolidator) pruneCausal(report *ConsolidateReport) error {
	res, err := c.store.execHook(c.store.db, `
		DELETE FROM causal_links
		WHERE confidence < ?
		  AND evidence_count >= ?
		  AND datetime(updated_at) < datetime('now', ?)`,
		c.cfg.PruneConfidence, c.cfg.MinObservations, retentionExpression(c.cfg.PruneWindow),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	report.CausalPruned += int(n)
	return nil
}

// archiveStale moves patterns untouched beyond the archive window into
// patterns_archive, whatever their confidence.
func (c *Consolidator) archiveStale(report *ConsolidateReport) error {
	tx, err := c.store.beginTxHook()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cutoff := retentionExpression(c.cfg.ArchiveWindow)
	res, err := c.store.execHook(tx, `
		INSERT INTO patterns_archive (id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used)
		SELECT id, pattern, context, confidence, outcome, occurrence_count, namespace, created_at, last_used
		FROM patterns
		WHERE datetime(last_used) < datetime('now', ?)`, cutoff,
	)
	if err != nil {
		return err
	}
	if _, err := c.store.execHook(tx,
		`DELETE FROM patterns WHERE datetime(last_used) < datetime('now', ?)`, cutoff,
	); err != nil {
		return err
	}
	if err := c.store.commitHook(tx); err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	report.Archived += int(n)
	return nil
}
