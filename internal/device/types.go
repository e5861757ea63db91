package device

import (
	"errors"
	"fmt"
	"time"
)

// Calendar describes one calendar in the device store.
type Calendar struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Color  string `json:"color"`
	Source string `json:"source"`

	// AllowsModifications mirrors the platform's writability flag and
	// drives the app-calendar fallback chain.
	AllowsModifications bool `json:"allowsModifications"`
}

// Event is a raw device calendar event. It is consumed only by the event
// normalizer outside this package.
type Event struct {
	ID         string
	CalendarID string
	Title      string
	Notes      string
	Start      time.Time
	End        time.Time
	AllDay     bool
}

// Permission and calendar failure classes.
var (
	// ErrPermissionNotRequested means calendar access has not been asked
	// for yet in this process.
	ErrPermissionNotRequested = errors.New("calendar permission not requested")

	// ErrPermissionDenied means the user declined calendar access.
	ErrPermissionDenied = errors.New("calendar permission denied")

	// ErrNoWritableCalendar means calendar creation failed and no existing
	// calendar allows modifications. This is surfaced to the caller; it is
	// never swallowed.
	ErrNoWritableCalendar = errors.New("no writable calendar available")

	// ErrCreateFailed wraps event or calendar creation failures. Creation
	// is not idempotent, so callers must not retry blindly.
	ErrCreateFailed = errors.New("create failed")
)

// StoreError wraps a device store operation failure.
type StoreError struct {
	// Op is the operation that failed (e.g. "createEvent", "calendars").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *StoreError) Unwrap() error {
	return e.Err
}
