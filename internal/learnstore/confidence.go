// confidence.go implements the fixed-rate confidence update rules.
//
// Two distinct numeric schemes are used on purpose: pattern confidence
// follows the asymmetric success/failure rule (repeated success builds trust
// gradually, a single failure discounts it meaningfully without zeroing it),
// while causal links use an exponential moving average toward the observed
// outcome.
package learnstore

import (
	"fmt"
	"math"
	"strings"
)

// Outcome is the result of a task observation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomePending Outcome = "pending"
)

// Update-rate constants. successRate rewards a success with a fraction of
// the remaining headroom; failurePenalty removes a fraction of the current
// confidence, so the penalty is steeper than the reward near the top.
const (
	successRate    = 0.1
	failurePenalty = 0.15
)

// Causal links blend toward the observed outcome instead: keep 90% of the
// old confidence, pull 10% toward 1.0 (success) or 0.0 (failure).
const (
	causalKeep = 0.9
	causalGain = 0.1
)

// neutralPrior is the starting confidence for a first observation.
const neutralPrior = 0.5

// ParseOutcome normalizes an outcome string. Returns ErrInvalidInput for
// anything other than success, failure, or pending.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(strings.TrimSpace(strings.ToLower(s))) {
	case OutcomeSuccess:
		return OutcomeSuccess, nil
	case OutcomeFailure:
		return OutcomeFailure, nil
	case OutcomePending:
		return OutcomePending, nil
	default:
		return "", fmt.Errorf("%w: outcome %q (want success, failure, or pending)", ErrInvalidInput, s)
	}
}

// UpdateConfidence computes the new confidence for a pattern given its prior
// and an observed outcome. Pure function, no I/O.
//
// Success: prior + (1 - prior) * 0.1. Failure: prior - prior * 0.15.
// Pending leaves the prior untouched. The result is clamped into [0, 1]
// even though the formulas are self-limiting, because callers may pass
// out-of-range priors. Non-finite priors collapse to the neutral prior
// before the update; callers that care should validate first.
func UpdateConfidence(prior float64, outcome Outcome) float64 {
	if math.IsNaN(prior) || math.IsInf(prior, 0) {
		prior = neutralPrior
	}
	prior = clamp01(prior)

	switch outcome {
	case OutcomeSuccess:
		return clamp01(prior + (1.0-prior)*successRate)
	case OutcomeFailure:
		return clamp01(prior - prior*failurePenalty)
	default:
		return prior
	}
}

// BlendCausal computes the new confidence for a causal link: an exponential
// moving average of the old confidence toward 1.0 (observed success) or 0.0.
func BlendCausal(old float64, observedSuccess bool) float64 {
	target := 0.0
	if observedSuccess {
		target = 1.0
	}
	return clamp01(old*causalKeep + causalGain*target)
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// validConfidence reports whether v is a usable confidence bound for
// queries: finite and within [0, 1].
func validConfidence(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0.0 && v <= 1.0
}
