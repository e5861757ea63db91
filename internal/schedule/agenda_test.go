package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calhub/calhub/internal/provider"
)

func ev(p provider.Provider, id string, start time.Time) Event {
	return Event{
		ID:         id,
		Provider:   p,
		CalendarID: "primary",
		Title:      id,
		Start:      start,
		End:        start.Add(time.Hour),
	}
}

func TestBuildAgendaUnion(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	contributions := []Contribution{
		{Provider: provider.Google, Events: []Event{
			ev(provider.Google, "g1", base),
			ev(provider.Google, "g2", base.AddDate(0, 0, 3)),
		}},
		{Provider: provider.Outlook, Events: []Event{
			ev(provider.Outlook, "o1", base.Add(2*time.Hour)),
		}},
		{Provider: provider.Device, Events: nil},
	}

	agenda := BuildAgenda(contributions)

	// Exactly the union: no event dropped, none duplicated.
	assert.Equal(t, 3, agenda.Len())
	assert.Len(t, agenda.Events("2025-06-01"), 2)
	assert.Len(t, agenda.Events("2025-06-04"), 1)
}

func TestBuildAgendaDeterministic(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a := Contribution{Provider: provider.Google, Events: []Event{ev(provider.Google, "g1", base)}}
	b := Contribution{Provider: provider.Outlook, Events: []Event{ev(provider.Outlook, "o1", base)}}

	first := BuildAgenda([]Contribution{a, b})
	second := BuildAgenda([]Contribution{b, a})

	require.Equal(t, first.Keys(), second.Keys())
	for _, key := range first.Keys() {
		assert.Equal(t, first.Events(key), second.Events(key))
	}
}

func TestBuildAgendaNoDedup(t *testing.T) {
	// The same logical meeting imported via two providers stays twice,
	// attributed to each origin.
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	agenda := BuildAgenda([]Contribution{
		{Provider: provider.Google, Events: []Event{ev(provider.Google, "standup", start)}},
		{Provider: provider.Outlook, Events: []Event{ev(provider.Outlook, "standup", start)}},
	})

	events := agenda.Events("2025-06-01")
	require.Len(t, events, 2)
	assert.Equal(t, provider.Google, events[0].Provider)
	assert.Equal(t, provider.Outlook, events[1].Provider)
}

func TestBuildAgendaTwoProviderScenario(t *testing.T) {
	// Provider A: one event 2025-06-01T10:00Z.
	// Provider B: one 2025-06-01T09:00Z, one on 2025-06-02.
	agenda := BuildAgenda([]Contribution{
		{Provider: provider.Google, Events: []Event{
			ev(provider.Google, "a1", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
		}},
		{Provider: provider.Outlook, Events: []Event{
			ev(provider.Outlook, "b1", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
			ev(provider.Outlook, "b2", time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)),
		}},
	})

	first := agenda.Events("2025-06-01")
	require.Len(t, first, 2)
	assert.Equal(t, "b1", first[0].ID)
	assert.Equal(t, "a1", first[1].ID)

	assert.Len(t, agenda.Events("2025-06-02"), 1)
}

func TestEventCrossingMidnightOneBucket(t *testing.T) {
	// A timed event crossing midnight appears under its start date only.
	start := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	event := Event{
		ID: "late", Provider: provider.Device, CalendarID: "local",
		Start: start, End: start.Add(3 * time.Hour),
	}
	agenda := BuildAgenda([]Contribution{{Provider: provider.Device, Events: []Event{event}}})

	assert.Len(t, agenda.Events("2025-06-01"), 1)
	assert.Empty(t, agenda.Events("2025-06-02"))
	assert.Equal(t, 1, agenda.Len())
}

func TestUpcomingStrictlyAfter(t *testing.T) {
	from := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	agenda := BuildAgenda([]Contribution{{Provider: provider.Google, Events: []Event{
		ev(provider.Google, "past", from.AddDate(0, 0, -1)),
		ev(provider.Google, "today", from.Add(4*time.Hour)),
		ev(provider.Google, "tomorrow", from.AddDate(0, 0, 1)),
		ev(provider.Google, "later", from.AddDate(0, 0, 10)),
	}}})

	upcoming := Upcoming(agenda, from, 0)

	require.Len(t, upcoming, 2)
	assert.Equal(t, "tomorrow", upcoming[0].ID)
	assert.Equal(t, "later", upcoming[1].ID)
	for _, ev := range upcoming {
		assert.Greater(t, ev.DateKey(), from.Format(DateKeyLayout))
	}
}

func TestUpcomingLimit(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var events []Event
	for day := 1; day <= 5; day++ {
		events = append(events, ev(provider.Google, string(rune('a'+day)), from.AddDate(0, 0, day)))
	}
	agenda := BuildAgenda([]Contribution{{Provider: provider.Google, Events: events}})

	assert.Len(t, Upcoming(agenda, from, 3), 3)
	assert.Len(t, Upcoming(agenda, from, 0), 5)
}

func TestUpcomingTotalOrderTieBreak(t *testing.T) {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	agenda := BuildAgenda([]Contribution{
		{Provider: provider.Outlook, Events: []Event{ev(provider.Outlook, "x", start)}},
		{Provider: provider.Google, Events: []Event{
			ev(provider.Google, "z", start),
			ev(provider.Google, "a", start),
		}},
	})

	upcoming := Upcoming(agenda, start.AddDate(0, 0, -1), 0)

	require.Len(t, upcoming, 3)
	// Same instant: provider ordering first, then ID.
	assert.Equal(t, "a", upcoming[0].ID)
	assert.Equal(t, "z", upcoming[1].ID)
	assert.Equal(t, provider.Outlook, upcoming[2].Provider)
}

func TestDaysUntil(t *testing.T) {
	from := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	event := ev(provider.Device, "d", time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, 3, DaysUntil(event, from))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleReader.Valid())
	assert.True(t, RoleWriter.Valid())
	assert.True(t, RoleOwner.Valid())
	assert.False(t, Role("freeBusyReader").Valid())
	assert.False(t, Role("").Valid())
}
