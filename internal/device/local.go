package device

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/calhub/calhub/internal/provider"
)

const (
	metaFileName = "calendar.json"
	icsExt       = ".ics"

	// localSourceName is the account descriptor local calendars are
	// created against.
	localSourceName = "local"
)

// LocalStore is a device calendar store backed by a directory of ICS
// files: one subdirectory per calendar holding a JSON descriptor plus one
// .ics file per event.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at the given directory. The
// directory is created lazily on first permission grant.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// RequestAccess reports whether the store directory is usable. The local
// store has no interactive dialog; access is granted when the directory
// can be created.
func (s *LocalStore) RequestAccess(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return false, nil
	}
	return true, nil
}

// Calendars enumerates calendar directories under the store root.
func (s *LocalStore) Calendars(ctx context.Context) ([]Calendar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store root: %w", err)
	}

	var calendars []Calendar
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		cal, err := s.readMeta(entry.Name())
		if err != nil {
			// A directory without a descriptor is not a calendar.
			continue
		}
		calendars = append(calendars, cal)
	}
	return calendars, nil
}

// DefaultSource returns the local account descriptor.
func (s *LocalStore) DefaultSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return localSourceName, nil
}

// CreateCalendar creates a calendar directory with its descriptor.
func (s *LocalStore) CreateCalendar(ctx context.Context, title, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create calendar dir: %w", err)
	}

	cal := Calendar{
		ID:                  id,
		Title:               title,
		Color:               "blue",
		Source:              source,
		AllowsModifications: true,
	}
	if err := s.writeMeta(cal); err != nil {
		return "", err
	}
	return id, nil
}

// Events decodes every stored event in the given calendars and keeps those
// intersecting the window.
func (s *LocalStore) Events(ctx context.Context, calendarIDs []string, window provider.Window) ([]Event, error) {
	var events []Event
	for _, calID := range calendarIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(s.root, calID)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read calendar %s: %w", calID, err)
		}

		for _, entry := range entries {
			if filepath.Ext(entry.Name()) != icsExt {
				continue
			}
			ev, err := s.readEvent(calID, filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			if window.Contains(ev.Start, ev.End) {
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

// CreateEvent encodes the event as a single-VEVENT ICS file.
func (s *LocalStore) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	meta, err := s.readMeta(calendarID)
	if err != nil {
		return "", fmt.Errorf("unknown calendar %s: %w", calendarID, err)
	}
	if !meta.AllowsModifications {
		return "", fmt.Errorf("calendar %s is read-only", calendarID)
	}

	uid := uuid.NewString()
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calhub//calendar store//EN")

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, ev.Title)
	if ev.Notes != "" {
		ve.Props.SetText(ical.PropDescription, ev.Notes)
	}
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	setEventTime(ve, ical.PropDateTimeStart, ev.Start, ev.AllDay)
	setEventTime(ve, ical.PropDateTimeEnd, ev.End, ev.AllDay)
	cal.Children = append(cal.Children, ve)

	path := filepath.Join(s.root, calendarID, uid+icsExt)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create event file: %w", err)
	}
	defer f.Close()

	if err := ical.NewEncoder(f).Encode(cal); err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	return uid, nil
}

func setEventTime(ve *ical.Component, name string, t time.Time, allDay bool) {
	if allDay {
		p := ical.NewProp(name)
		p.SetValueType(ical.ValueDate)
		p.Value = t.Format("20060102")
		ve.Props.Set(p)
		return
	}
	ve.Props.SetDateTime(name, t)
}

func (s *LocalStore) readEvent(calendarID, path string) (Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return Event{}, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	cal, err := ical.NewDecoder(f).Decode()
	if err != nil {
		return Event{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		return decodeVEvent(calendarID, child)
	}
	return Event{}, fmt.Errorf("no VEVENT in %s", filepath.Base(path))
}

func decodeVEvent(calendarID string, ve *ical.Component) (Event, error) {
	ev := Event{CalendarID: calendarID}

	ev.ID, _ = ve.Props.Text(ical.PropUID)
	ev.Title, _ = ve.Props.Text(ical.PropSummary)
	ev.Notes, _ = ve.Props.Text(ical.PropDescription)

	if p := ve.Props.Get(ical.PropDateTimeStart); p != nil {
		ev.AllDay = p.ValueType() == ical.ValueDate
	}

	start, err := ve.Props.DateTime(ical.PropDateTimeStart, time.Local)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: bad DTSTART: %w", ev.ID, err)
	}
	ev.Start = start

	end, err := ve.Props.DateTime(ical.PropDateTimeEnd, time.Local)
	if err != nil {
		// Events without DTEND are treated as instantaneous.
		end = start
	}
	ev.End = end

	return ev, nil
}

func (s *LocalStore) readMeta(calendarID string) (Calendar, error) {
	data, err := os.ReadFile(filepath.Join(s.root, calendarID, metaFileName))
	if err != nil {
		return Calendar{}, err
	}
	var cal Calendar
	if err := json.Unmarshal(data, &cal); err != nil {
		return Calendar{}, fmt.Errorf("parse descriptor for %s: %w", calendarID, err)
	}
	return cal, nil
}

func (s *LocalStore) writeMeta(cal Calendar) error {
	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.root, cal.ID, metaFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}
