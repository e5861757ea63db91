package schedule

import (
	"sort"
	"time"
)

// Agenda is the date-keyed aggregation of canonical events across all
// sources for one sync cycle. It is rebuilt wholesale every cycle and never
// patched incrementally, so a stale contribution can never linger.
type Agenda struct {
	days map[string][]Event
}

// BuildAgenda groups every contributed event under its date key. It is a
// pure fold: deterministic given the same events regardless of the order
// the contributions arrive in. Identical meetings imported from two
// providers are kept twice, each attributed to its origin; deduplication is
// deliberately not attempted.
func BuildAgenda(contributions []Contribution) Agenda {
	days := make(map[string][]Event)
	for _, c := range contributions {
		for _, ev := range c.Events {
			key := ev.DateKey()
			days[key] = append(days[key], ev)
		}
	}

	for _, events := range days {
		sort.Slice(events, func(i, j int) bool {
			return events[i].Before(events[j])
		})
	}

	return Agenda{days: days}
}

// Keys returns the agenda's date keys in ascending order.
func (a Agenda) Keys() []string {
	keys := make([]string, 0, len(a.days))
	for key := range a.days {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Events returns the events bucketed under the given date key, ordered by
// start instant with provider and ID tie-breaks. The returned slice is a
// copy; mutating it does not affect the agenda.
func (a Agenda) Events(key string) []Event {
	events := a.days[key]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Len returns the total number of events across all dates.
func (a Agenda) Len() int {
	n := 0
	for _, events := range a.days {
		n += len(events)
	}
	return n
}

// Upcoming returns events whose date key is strictly after the date of
// from, ascending. limit <= 0 means no limit.
func Upcoming(a Agenda, from time.Time, limit int) []Event {
	fromKey := from.Format(DateKeyLayout)

	var out []Event
	for _, key := range a.Keys() {
		if key <= fromKey {
			continue
		}
		for _, ev := range a.days[key] {
			out = append(out, ev)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

// DaysUntil returns the whole days between from's date and the event's date
// key, for "N days left" style display.
func DaysUntil(ev Event, from time.Time) int {
	eventDay, err := time.ParseInLocation(DateKeyLayout, ev.DateKey(), from.Location())
	if err != nil {
		return 0
	}
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	return int(eventDay.Sub(fromDay) / (24 * time.Hour))
}
