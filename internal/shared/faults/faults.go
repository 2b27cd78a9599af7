package faults

import "errors"

// Reservation error taxonomy. Callers classify with errors.Is; the HTTP layer
// maps each kind to a status code.
var (
	// ErrInvalidWindow marks a malformed or zero-length time range. Caller
	// error, never retried.
	ErrInvalidWindow = errors.New("invalid reservation window")

	// ErrPolicyViolation marks a cooldown or maximum-duration breach on an
	// artist booking. Caller error.
	ErrPolicyViolation = errors.New("reservation violates artist policy")

	// ErrResourceUnavailable marks a detected conflict. The caller may retry
	// with a different window; the system never retries it automatically.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrConflict marks a failed optimistic-concurrency precondition on a
	// ledger write. Signals a lost race, not a business rule: the whole
	// reservation attempt is safe to retry once.
	ErrConflict = errors.New("ledger write precondition failed")

	// ErrInvalidTransition marks a state-machine misuse. Indicates a caller
	// or worker bug and is logged at error level.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrQueueDelivery marks a status job that could not be processed. The
	// queue retries it; exhausted jobs land on the dead-letter topic.
	ErrQueueDelivery = errors.New("status job delivery failed")

	// ErrNotFound marks a missing booking or resource.
	ErrNotFound = errors.New("not found")
)
