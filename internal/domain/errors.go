package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when no acting user is known.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrUnavailable marks a transient backend outage (502/503/504).
	ErrUnavailable = errors.New("service unavailable")
	// ErrTimeout marks a request that ran out of time.
	ErrTimeout = errors.New("request timed out")
	// ErrInvalidInput wraps validation failures on caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMutationFailed is returned when the backend rejected a cart change.
	ErrMutationFailed = errors.New("cart update failed")
)

// IsTransient reports whether err is a soft failure that must never wipe local state.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
