package learnstore

import "errors"

// Sentinel errors returned by store operations. Callers match them with
// errors.Is; the store wraps each with operation context via fmt.Errorf.
var (
	// ErrInvalidInput signals empty/malformed pattern text, a malformed
	// namespace name, or an out-of-range numeric argument. Never retried.
	ErrInvalidInput = errors.New("learnstore: invalid input")

	// ErrNotFound signals a reference to a pattern, failure, or namespace
	// that does not exist.
	ErrNotFound = errors.New("learnstore: not found")

	// ErrCycleDetected signals that a namespace parent chain exceeded the
	// defensive hop bound. The operation aborts without partial effect.
	ErrCycleDetected = errors.New("learnstore: cycle detected")

	// ErrConsolidateLocked signals that another consolidation run holds
	// the advisory lock. The caller should retry later.
	ErrConsolidateLocked = errors.New("learnstore: consolidation already running")
)
