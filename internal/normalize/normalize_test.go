package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/calhub/calhub/internal/device"
	"github.com/calhub/calhub/internal/outlook"
	"github.com/calhub/calhub/internal/provider"
)

func TestGoogleEventTimed(t *testing.T) {
	raw := &calendar.Event{
		Id:          "g1",
		Summary:     "Standup",
		Description: "daily",
		Start:       &calendar.EventDateTime{DateTime: "2025-06-01T10:00:00+02:00"},
		End:         &calendar.EventDateTime{DateTime: "2025-06-01T10:30:00+02:00"},
	}

	ev := GoogleEvent(raw, "primary")

	assert.Equal(t, "g1", ev.ID)
	assert.Equal(t, provider.Google, ev.Provider)
	assert.Equal(t, "primary", ev.CalendarID)
	assert.Equal(t, "Standup", ev.Title)
	assert.False(t, ev.AllDay)
	// The timezone is carried as given.
	_, offset := ev.Start.Zone()
	assert.Equal(t, 2*3600, offset)
	assert.Equal(t, "2025-06-01", ev.DateKey())
}

func TestGoogleEventAllDay(t *testing.T) {
	raw := &calendar.Event{
		Id:    "g2",
		Start: &calendar.EventDateTime{Date: "2025-06-02"},
		End:   &calendar.EventDateTime{Date: "2025-06-03"},
	}

	ev := GoogleEvent(raw, "primary")

	assert.True(t, ev.AllDay)
	assert.Equal(t, "2025-06-02", ev.DateKey())
	// Absent title and description become empty strings, never a failure.
	assert.Equal(t, "", ev.Title)
	assert.Equal(t, "", ev.Description)
}

func TestGoogleEventMissingInstants(t *testing.T) {
	// Never drop: an event with no usable instants still normalizes.
	ev := GoogleEvent(&calendar.Event{Id: "g3"}, "primary")

	assert.Equal(t, "g3", ev.ID)
	assert.True(t, ev.Start.IsZero())
	assert.False(t, ev.End.Before(ev.Start))
}

func TestOutlookEvent(t *testing.T) {
	raw := outlook.Event{
		ID:          "o1",
		Subject:     "Design review",
		BodyPreview: "bring mockups",
		Start:       outlook.DateTimeTimeZone{DateTime: "2025-06-03T14:00:00.0000000", TimeZone: "UTC"},
		End:         outlook.DateTimeTimeZone{DateTime: "2025-06-03T15:00:00.0000000", TimeZone: "UTC"},
	}

	ev := OutlookEvent(raw)

	assert.Equal(t, provider.Outlook, ev.Provider)
	assert.Equal(t, outlook.MeCalendarID, ev.CalendarID)
	assert.Equal(t, "Design review", ev.Title)
	assert.Equal(t, "bring mockups", ev.Description)
	assert.True(t, ev.Start.Equal(time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC)))
	assert.False(t, ev.AllDay)
}

func TestOutlookEventAllDay(t *testing.T) {
	raw := outlook.Event{
		ID:       "o2",
		Subject:  "Offsite",
		IsAllDay: true,
		Start:    outlook.DateTimeTimeZone{DateTime: "2025-06-05T00:00:00", TimeZone: "UTC"},
		End:      outlook.DateTimeTimeZone{DateTime: "2025-06-06T00:00:00", TimeZone: "UTC"},
	}

	ev := OutlookEvent(raw)

	assert.True(t, ev.AllDay)
	assert.Equal(t, "2025-06-05", ev.DateKey())
}

func TestOutlookEventBadTimeZone(t *testing.T) {
	raw := outlook.Event{
		ID:    "o3",
		Start: outlook.DateTimeTimeZone{DateTime: "2025-06-05T09:00:00", TimeZone: "Pacific Standard Time"},
		End:   outlook.DateTimeTimeZone{DateTime: "2025-06-05T10:00:00", TimeZone: "Pacific Standard Time"},
	}

	// Unknown zone names degrade to UTC instead of dropping the event.
	ev := OutlookEvent(raw)
	assert.True(t, ev.Start.Equal(time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)))
}

func TestDeviceEvent(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	raw := device.Event{
		ID:         "d1",
		CalendarID: "cal-local",
		Title:      "Dentist",
		Notes:      "bring card",
		Start:      start,
		End:        start.Add(time.Hour),
	}

	ev := DeviceEvent(raw)

	assert.Equal(t, provider.Device, ev.Provider)
	assert.Equal(t, "cal-local", ev.CalendarID)
	assert.Equal(t, "bring card", ev.Description)
	assert.Equal(t, start.Format("2006-01-02"), ev.DateKey())
}

func TestClampInvertedSpan(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ev := DeviceEvent(device.Event{ID: "d2", Start: start, End: start.Add(-time.Hour)})

	assert.True(t, ev.End.Equal(ev.Start))
}

func TestDateKeyRoundTrip(t *testing.T) {
	// The derived date key always matches the date portion of the start
	// instant, for every normalizer.
	cases := []struct {
		name string
		ev   func() (string, string)
	}{
		{"google timed", func() (string, string) {
			ev := GoogleEvent(&calendar.Event{
				Id:    "g",
				Start: &calendar.EventDateTime{DateTime: "2025-12-31T23:30:00-05:00"},
				End:   &calendar.EventDateTime{DateTime: "2026-01-01T00:30:00-05:00"},
			}, "primary")
			return ev.DateKey(), ev.Start.Format("2006-01-02")
		}},
		{"outlook", func() (string, string) {
			ev := OutlookEvent(outlook.Event{
				ID:    "o",
				Start: outlook.DateTimeTimeZone{DateTime: "2025-07-04T08:00:00", TimeZone: "UTC"},
				End:   outlook.DateTimeTimeZone{DateTime: "2025-07-04T09:00:00", TimeZone: "UTC"},
			})
			return ev.DateKey(), ev.Start.Format("2006-01-02")
		}},
		{"device", func() (string, string) {
			start := time.Date(2025, 3, 9, 22, 0, 0, 0, time.Local)
			ev := DeviceEvent(device.Event{ID: "d", Start: start, End: start.Add(time.Hour)})
			return ev.DateKey(), ev.Start.Format("2006-01-02")
		}},
	}

	for _, tc := range cases {
		key, want := tc.ev()
		assert.Equal(t, want, key, tc.name)
	}
}
