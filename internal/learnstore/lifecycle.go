// lifecycle.go is the retrieval/injection façade: the two calls a host
// agent makes around every task. QueryRelevant runs before the task and
// returns a prompt-ready context block; RecordOutcome runs after and feeds
// the observation back into patterns, failures, and the causal graph.
package learnstore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RecallOptions holds the input for pre-task pattern recall.
type RecallOptions struct {
	// Task is free text describing what the agent is about to do. When
	// set, recall runs full-text search; otherwise it falls back to a
	// confidence/recency ranking.
	Task string `json:"task,omitempty"`
	// Namespace scopes the recall; its inheritance chain is resolved so
	// patterns from parent namespaces are included.
	Namespace     string      `json:"namespace,omitempty"`
	MinConfidence float64     `json:"min_confidence,omitempty"`
	Limit         int         `json:"limit,omitempty"`
	DetailLevel   DetailLevel `json:"detail_level,omitempty"`
}

// RecallResult is the recall payload: the matched patterns, the namespace
// chain that was searched, and a markdown block ready for prompt injection.
type RecallResult struct {
	Patterns       []Pattern `json:"patterns"`
	NamespaceChain []string  `json:"namespace_chain"`
	Context        string    `json:"context"`
}

// CauseEffect is one observed cause→effect pair reported with an outcome.
type CauseEffect struct {
	Cause    string `json:"cause"`
	Effect   string `json:"effect"`
	LinkType string `json:"link_type,omitempty"`
}

// OutcomeParams holds the input for post-task outcome recording.
type OutcomeParams struct {
	Pattern   string  `json:"pattern"`
	Namespace string  `json:"namespace,omitempty"`
	Context   string  `json:"context,omitempty"`
	Outcome   Outcome `json:"outcome"`
	// ErrorType/ErrorMessage describe what went wrong; required when the
	// outcome is failure.
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	// Causes are cause→effect pairs the agent observed during the task;
	// each reinforces (or creates) a causal link with this outcome.
	Causes []CauseEffect `json:"causes,omitempty"`
	// TaskID correlates recall and record calls; generated when empty.
	TaskID string `json:"task_id,omitempty"`
}

// OutcomeResult reports what RecordOutcome changed.
type OutcomeResult struct {
	TaskID           string       `json:"task_id"`
	Pattern          *Pattern     `json:"pattern"`
	Failure          *Failure     `json:"failure,omitempty"`
	FailuresResolved int64        `json:"failures_resolved,omitempty"`
	Links            []CausalLink `json:"links,omitempty"`
}

// QueryRelevant resolves the namespace chain and returns the strongest
// matching patterns plus a markdown context block for injection into the
// host's prompt. Free-text search falls back to a ranked query when FTS
// finds nothing, so a fresh store still returns its best patterns.
func (s *Store) QueryRelevant(opts RecallOptions) (*RecallResult, error) {
	chain, err := s.ResolveChain(opts.Namespace)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 || limit > s.cfg.MaxRecallResults {
		limit = s.cfg.MaxRecallResults
	}
	qopts := QueryOptions{
		Namespaces:    chain,
		MinConfidence: opts.MinConfidence,
		Limit:         limit,
	}

	var patterns []Pattern
	if strings.TrimSpace(opts.Task) != "" {
		results, err := s.SearchPatterns(opts.Task, qopts)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			patterns = append(patterns, r.Pattern)
		}
	}
	if len(patterns) == 0 {
		patterns, err = s.QueryPatterns(qopts)
		if err != nil {
			return nil, err
		}
	}

	return &RecallResult{
		Patterns:       patterns,
		NamespaceChain: chain,
		Context:        FormatRecall(patterns, chain, opts.DetailLevel),
	}, nil
}

// RecordOutcome feeds one task observation back into the store: the pattern
// upsert always happens; a failure outcome also appends a failure record; a
// success outcome best-effort resolves prior unresolved failures with the
// same context; reported cause→effect pairs reinforce the causal graph.
// Each store write is atomic on its own, so a later step failing never
// corrupts an earlier one.
func (s *Store) RecordOutcome(p OutcomeParams) (*OutcomeResult, error) {
	pat, err := s.UpsertPattern(UpsertParams{
		Pattern:   p.Pattern,
		Namespace: p.Namespace,
		Context:   p.Context,
		Outcome:   p.Outcome,
	})
	if err != nil {
		return nil, err
	}

	result := &OutcomeResult{TaskID: p.TaskID, Pattern: pat}
	if result.TaskID == "" {
		result.TaskID = uuid.NewString()
	}

	switch p.Outcome {
	case OutcomeFailure:
		errorType := strings.TrimSpace(p.ErrorType)
		if errorType == "" {
			errorType = "unknown"
		}
		failure, err := s.RecordFailure(FailureParams{
			Context:      p.Context,
			ErrorType:    errorType,
			ErrorMessage: p.ErrorMessage,
			PatternID:    &pat.ID,
		})
		if err != nil {
			return nil, err
		}
		result.Failure = failure
	case OutcomeSuccess:
		n, err := s.resolveMatching(p.Context, pat.ID)
		if err != nil {
			return nil, err
		}
		result.FailuresResolved = n
	}

	success := p.Outcome == OutcomeSuccess
	for _, ce := range p.Causes {
		link, err := s.AddOrReinforceLink(ce.Cause, ce.Effect, ce.LinkType, success)
		if err != nil {
			return nil, err
		}
		result.Links = append(result.Links, *link)
	}

	return result, nil
}

// FormatRecall renders patterns as a markdown context block suitable for
// direct prompt injection.
func FormatRecall(patterns []Pattern, chain []string, level DetailLevel) string {
	if len(patterns) == 0 {
		return "No learned patterns for this scope yet."
	}

	var b strings.Builder
	b.WriteString("## Learned Patterns\n\n")
	if len(chain) > 0 {
		fmt.Fprintf(&b, "Scope: %s\n\n", strings.Join(chain, " → "))
	}

	for _, p := range patterns {
		fmt.Fprintf(&b, "- **%s** (confidence %.2f, seen %d×, %s)\n",
			Truncate(p.Pattern, 200), p.Confidence, p.OccurrenceCount, p.Namespace)
		if level != DetailSummary && p.Context != "" {
			fmt.Fprintf(&b, "  - context: %s\n", Truncate(p.Context, 300))
		}
		if level == DetailFull {
			fmt.Fprintf(&b, "  - outcome: %s, last used %s\n", p.Outcome, p.LastUsed)
		}
	}

	if level == DetailSummary {
		b.WriteString("\n")
		b.WriteString(SummaryFooter(len(patterns)))
	}
	return b.String()
}
