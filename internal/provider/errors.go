package provider

import (
	"errors"
	"fmt"
)

// Remote fetch failure classes. Callers react differently to each: an invalid
// token requires re-authentication rather than a retry, rate limiting requires
// backoff, and a network failure only marks the provider's contribution stale
// for the current cycle.
var (
	ErrInvalidToken   = errors.New("access token rejected")
	ErrRateLimited    = errors.New("rate limited")
	ErrNetworkFailure = errors.New("network failure")
	ErrNotFound       = errors.New("not found")
)

// Error wraps a provider operation failure with its origin.
type Error struct {
	// Provider is the provider the operation targeted.
	Provider Provider

	// Op is the operation that failed (e.g. "listEvents", "shareCalendar").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Err
}

// WrapStatus maps an HTTP status code from a provider REST surface to the
// fetch error taxonomy. Unmapped statuses are reported as plain errors so the
// caller still sees the code.
func WrapStatus(p Provider, op string, status int) error {
	var err error
	switch {
	case status == 401:
		err = ErrInvalidToken
	case status == 429:
		err = ErrRateLimited
	case status == 404:
		err = ErrNotFound
	default:
		err = fmt.Errorf("unexpected status %d", status)
	}
	return &Error{Provider: p, Op: op, Err: err}
}
