// Package normalize converts provider-specific event payloads into the
// canonical schedule.Event. Normalization is pure: no I/O, no hidden
// state, and it never drops an event — absent titles or descriptions
// become empty strings, and unparseable instants degrade to the zero time
// rather than failing the cycle. Nothing outside this package inspects a
// provider-shaped payload.
package normalize

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/calhub/calhub/internal/device"
	"github.com/calhub/calhub/internal/outlook"
	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/schedule"
)

const (
	dateOnlyLayout = "2006-01-02"

	// graphDateTimeLayout matches Graph's dateTimeTimeZone values; the
	// fractional part is optional.
	graphDateTimeLayout = "2006-01-02T15:04:05.9999999"
)

// DeviceEvent converts a raw device calendar event.
func DeviceEvent(raw device.Event) schedule.Event {
	return clamp(schedule.Event{
		ID:          raw.ID,
		Provider:    provider.Device,
		CalendarID:  raw.CalendarID,
		Title:       raw.Title,
		Description: raw.Notes,
		Start:       raw.Start,
		End:         raw.End,
		AllDay:      raw.AllDay,
	})
}

// GoogleEvent converts a raw Google Calendar event. Date-only start and
// end fields mark the event all-day; date-time fields keep the offset the
// provider supplied.
func GoogleEvent(raw *calendar.Event, calendarID string) schedule.Event {
	ev := schedule.Event{
		ID:          raw.Id,
		Provider:    provider.Google,
		CalendarID:  calendarID,
		Title:       raw.Summary,
		Description: raw.Description,
	}

	ev.Start, ev.AllDay = googleInstant(raw.Start)
	ev.End, _ = googleInstant(raw.End)

	return clamp(ev)
}

func googleInstant(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.Date != "" {
		t, err := time.ParseInLocation(dateOnlyLayout, edt.Date, time.Local)
		if err != nil {
			return time.Time{}, true
		}
		return t, true
	}
	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, false
}

// OutlookEvent converts a raw Microsoft Graph event.
func OutlookEvent(raw outlook.Event) schedule.Event {
	ev := schedule.Event{
		ID:          raw.ID,
		Provider:    provider.Outlook,
		CalendarID:  outlook.MeCalendarID,
		Title:       raw.Subject,
		Description: raw.BodyPreview,
		AllDay:      raw.IsAllDay,
	}

	ev.Start = graphInstant(raw.Start)
	ev.End = graphInstant(raw.End)

	return clamp(ev)
}

func graphInstant(dtz outlook.DateTimeTimeZone) time.Time {
	loc, err := time.LoadLocation(dtz.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(graphDateTimeLayout, dtz.DateTime, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// clamp enforces the Start <= End invariant without dropping the event.
func clamp(ev schedule.Event) schedule.Event {
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}
	return ev
}
