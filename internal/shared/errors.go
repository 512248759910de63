package shared

import "errors"

// Error taxonomy shared by the billing and finance services. Services wrap
// these with fmt.Errorf("...: %w", ...) so handlers can classify with
// errors.Is while keeping the specific context in the message.
var (
	// ErrNotFound indicates a referenced order, sub-order, or id is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAmount indicates a non-positive or malformed payment amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAlreadySettled indicates no remaining balance to apply against.
	ErrAlreadySettled = errors.New("already settled")
	// ErrInvariantViolation indicates derived totals would become inconsistent.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrConflict indicates an optimistic-concurrency mismatch on write.
	ErrConflict = errors.New("conflicting concurrent update")
	// ErrStoreUnavailable indicates a collaborator I/O failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Retryable reports whether the caller may reasonably retry the operation.
// Only conflicts and store outages qualify; everything else is terminal for
// the request.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreUnavailable)
}
