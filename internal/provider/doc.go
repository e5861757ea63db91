// Package provider defines the shared vocabulary for calendar providers:
// provider identifiers, fetch windows, and the remote failure taxonomy used
// by every fetcher so that callers can distinguish recoverable failures
// (rate limits, transient network errors) from ones that need user action
// (expired tokens).
package provider
