package schedule

import (
	"fmt"
	"time"

	"github.com/calhub/calhub/internal/provider"
)

// DateKeyLayout is the calendar-date key format used by the agenda.
const DateKeyLayout = "2006-01-02"

// Event is the canonical, provider-agnostic event representation.
// ID is unique within (Provider, CalendarID); Start never follows End.
type Event struct {
	ID          string
	Provider    provider.Provider
	CalendarID  string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// DateKey returns the agenda bucket for the event: the calendar date of its
// start instant, in the start instant's own location. An event that crosses
// midnight still belongs to its start date only.
func (e Event) DateKey() string {
	return e.Start.Format(DateKeyLayout)
}

// Before orders events deterministically: by start instant, then provider,
// then ID. A total order is required so merged output is reproducible.
func (e Event) Before(other Event) bool {
	if !e.Start.Equal(other.Start) {
		return e.Start.Before(other.Start)
	}
	if e.Provider != other.Provider {
		return e.Provider < other.Provider
	}
	return e.ID < other.ID
}

// Source describes one calendar a provider exposes. It is an immutable
// snapshot taken during a fetch cycle.
type Source struct {
	Provider    provider.Provider
	ID          string
	DisplayName string
	Color       string
	Writable    bool
}

// Contribution is one source's normalized events for a sync cycle.
type Contribution struct {
	Provider provider.Provider
	Events   []Event
}

// Role is a sharing permission level on a remote calendar.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleOwner  Role = "owner"
)

// Valid reports whether the role is one of the grantable levels.
func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleWriter, RoleOwner:
		return true
	}
	return false
}

// ShareGrant is an access-control entry granted on a remote calendar.
// It is ephemeral: returned for display and then discarded.
type ShareGrant struct {
	CalendarID string
	Email      string
	Role       Role
}

func (g ShareGrant) String() string {
	return fmt.Sprintf("%s on %s for %s", g.Role, g.CalendarID, g.Email)
}
