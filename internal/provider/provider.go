package provider

import (
	"fmt"
	"time"
)

// Provider identifies a calendar or identity service contributing to the
// merged schedule.
type Provider string

const (
	// Device is the local on-device calendar store.
	Device Provider = "device"

	// Google is the Google-Calendar-backed remote provider.
	Google Provider = "google"

	// Outlook is the Microsoft-Graph-backed remote provider.
	Outlook Provider = "outlook"

	// Apple is an identity-only provider; it never contributes events.
	Apple Provider = "apple"
)

// Remote reports whether the provider is fetched over the network.
func (p Provider) Remote() bool {
	return p == Google || p == Outlook
}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case Device, Google, Outlook, Apple:
		return true
	}
	return false
}

// Window is a half-open time range [Start, End). Event fetches return events
// whose span intersects the window.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow returns the standard fetch window of one year starting at now.
func DefaultWindow(now time.Time) Window {
	return Window{Start: now, End: now.AddDate(1, 0, 0)}
}

// Contains reports whether the span [start, end] intersects the window.
func (w Window) Contains(start, end time.Time) bool {
	return start.Before(w.End) && !end.Before(w.Start)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
