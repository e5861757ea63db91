package google

import (
	calendar "google.golang.org/api/calendar/v3"

	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/schedule"
)

// Profile is the signed-in Google user, consumed for display.
type Profile struct {
	ID    string
	Email string
	Name  string
}

// toSource converts a calendar list entry to a source snapshot.
func toSource(entry *calendar.CalendarListEntry) schedule.Source {
	return schedule.Source{
		Provider:    provider.Google,
		ID:          entry.Id,
		DisplayName: entry.Summary,
		Color:       entry.BackgroundColor,
		Writable:    entry.AccessRole == "owner" || entry.AccessRole == "writer",
	}
}
