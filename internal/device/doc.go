// Package device wraps the local device calendar: permission acquisition,
// app-owned calendar resolution with a mandatory writable-calendar
// fallback, and event access bounded by a time window.
//
// The platform calendar API is abstracted behind the Store interface; the
// bundled LocalStore persists calendars as directories of ICS files. Raw
// device events leave this package only to be normalized.
package device
