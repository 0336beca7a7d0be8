package shared

import "errors"

var (
	// ErrNotFound indicates the booking or invoice is missing at mutation time.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a booking status change outside the allowed set.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPermissionDenied indicates the caller's capability check failed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrExceedsBalance indicates a payment amount above the invoice balance.
	ErrExceedsBalance = errors.New("amount exceeds balance due")
	// ErrConflict indicates a concurrent write invalidated the read snapshot.
	ErrConflict = errors.New("conflicting concurrent update")
)

// UserSafeMessage returns a message suitable for end-user display. Unexpected
// persistence errors are masked; validation errors pass through verbatim.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrExceedsBalance):
		return err.Error()
	case errors.Is(err, ErrConflict):
		return "the record changed while you were editing, please refresh and retry"
	default:
		return "an unexpected error occurred"
	}
}
