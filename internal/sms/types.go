package sms

import "fmt"

// SMSError represents an error that occurred during an SMS operation
type SMSError struct {
	Op  string // The operation that failed (e.g., "send")
	Err error  // The underlying error
}

// Error implements the error interface
func (e *SMSError) Error() string {
	return fmt.Sprintf("sms %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *SMSError) Unwrap() error {
	return e.Err
}
