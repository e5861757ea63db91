package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calhub/calhub/internal/provider"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	granted, err := store.RequestAccess(ctx)
	require.NoError(t, err)
	require.True(t, granted)

	source, err := store.DefaultSource(ctx)
	require.NoError(t, err)

	calID, err := store.CreateCalendar(ctx, "Calhub", source)
	require.NoError(t, err)

	calendars, err := store.Calendars(ctx)
	require.NoError(t, err)
	require.Len(t, calendars, 1)
	assert.Equal(t, "Calhub", calendars[0].Title)
	assert.True(t, calendars[0].AllowsModifications)

	start := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	id, err := store.CreateEvent(ctx, calID, Event{
		Title: "Dentist",
		Notes: "bring insurance card",
		Start: start,
		End:   start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	events, err := store.Events(ctx, []string{calID}, provider.Window{
		Start: start.AddDate(0, 0, -1),
		End:   start.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, "Dentist", events[0].Title)
	assert.Equal(t, "bring insurance card", events[0].Notes)
	assert.False(t, events[0].AllDay)
	assert.True(t, events[0].Start.Equal(start))
}

func TestLocalStoreAllDayEvent(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	_, err := store.RequestAccess(ctx)
	require.NoError(t, err)

	calID, err := store.CreateCalendar(ctx, "Calhub", "local")
	require.NoError(t, err)

	day := time.Date(2025, 7, 10, 0, 0, 0, 0, time.Local)
	_, err = store.CreateEvent(ctx, calID, Event{
		Title:  "Holiday",
		Start:  day,
		End:    day.AddDate(0, 0, 1),
		AllDay: true,
	})
	require.NoError(t, err)

	events, err := store.Events(ctx, []string{calID}, provider.Window{
		Start: day.AddDate(0, 0, -1),
		End:   day.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, "2025-07-10", events[0].Start.Format("2006-01-02"))
}

func TestLocalStoreWindowFilter(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	_, err := store.RequestAccess(ctx)
	require.NoError(t, err)

	calID, err := store.CreateCalendar(ctx, "Calhub", "local")
	require.NoError(t, err)

	inside := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	outside := inside.AddDate(0, 2, 0)
	for _, start := range []time.Time{inside, outside} {
		_, err = store.CreateEvent(ctx, calID, Event{Title: "e", Start: start, End: start.Add(time.Hour)})
		require.NoError(t, err)
	}

	events, err := store.Events(ctx, []string{calID}, provider.Window{
		Start: inside.AddDate(0, 0, -1),
		End:   inside.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLocalStoreUnknownCalendar(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	_, err := store.RequestAccess(ctx)
	require.NoError(t, err)

	_, err = store.CreateEvent(ctx, "missing", Event{Title: "e", Start: time.Now(), End: time.Now()})
	assert.Error(t, err)

	// Unknown calendars are skipped during event reads, not failed.
	events, err := store.Events(ctx, []string{"missing"}, provider.DefaultWindow(time.Now()))
	require.NoError(t, err)
	assert.Empty(t, events)
}
