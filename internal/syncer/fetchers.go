package syncer

import (
	"context"

	"github.com/calhub/calhub/internal/device"
	"github.com/calhub/calhub/internal/google"
	"github.com/calhub/calhub/internal/normalize"
	"github.com/calhub/calhub/internal/outlook"
	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/schedule"
)

// Fetch is one branch's output for a sync cycle: the normalized events it
// contributes plus the calendars they came from.
type Fetch struct {
	Contribution schedule.Contribution
	Sources      []schedule.Source
}

// RemoteFetcher pulls one remote provider's events for a window using the
// access token current at cycle time.
type RemoteFetcher interface {
	Provider() provider.Provider
	Fetch(ctx context.Context, accessToken string, window provider.Window) (Fetch, error)
}

// DeviceFetcher pulls the on-device calendar branch. It needs no token.
type DeviceFetcher interface {
	Fetch(ctx context.Context, window provider.Window) (Fetch, error)
}

// GoogleFetcher fetches the primary Google calendar. NewClient is
// swappable for tests; the zero value uses the real client.
type GoogleFetcher struct {
	NewClient func(ctx context.Context, accessToken string) (*google.Client, error)
}

func (f *GoogleFetcher) Provider() provider.Provider { return provider.Google }

func (f *GoogleFetcher) Fetch(ctx context.Context, accessToken string, window provider.Window) (Fetch, error) {
	newClient := f.NewClient
	if newClient == nil {
		newClient = func(ctx context.Context, tok string) (*google.Client, error) {
			return google.NewClient(ctx, tok)
		}
	}
	client, err := newClient(ctx, accessToken)
	if err != nil {
		return Fetch{}, err
	}

	sources, err := client.ListCalendars(ctx)
	if err != nil {
		return Fetch{}, err
	}
	raw, err := client.ListEvents(ctx, window)
	if err != nil {
		return Fetch{}, err
	}

	events := make([]schedule.Event, 0, len(raw))
	for _, r := range raw {
		events = append(events, normalize.GoogleEvent(r, "primary"))
	}
	return Fetch{
		Contribution: schedule.Contribution{Provider: provider.Google, Events: events},
		Sources:      sources,
	}, nil
}

// OutlookFetcher fetches the signed-in Outlook account's default calendar
// via Microsoft Graph.
type OutlookFetcher struct {
	Options []outlook.Option
}

func (f *OutlookFetcher) Provider() provider.Provider { return provider.Outlook }

func (f *OutlookFetcher) Fetch(ctx context.Context, accessToken string, window provider.Window) (Fetch, error) {
	client, err := outlook.NewClient(accessToken, f.Options...)
	if err != nil {
		return Fetch{}, err
	}

	sources, err := client.ListCalendars(ctx)
	if err != nil {
		return Fetch{}, err
	}
	raw, err := client.ListEvents(ctx, window)
	if err != nil {
		return Fetch{}, err
	}

	events := make([]schedule.Event, 0, len(raw))
	for _, r := range raw {
		events = append(events, normalize.OutlookEvent(r))
	}
	return Fetch{
		Contribution: schedule.Contribution{Provider: provider.Outlook, Events: events},
		Sources:      sources,
	}, nil
}

// AdapterFetcher bridges the device calendar adapter into the sync cycle.
// Calendars the user cannot read come back empty rather than failing.
type AdapterFetcher struct {
	Adapter *device.Adapter
}

func (f *AdapterFetcher) Fetch(ctx context.Context, window provider.Window) (Fetch, error) {
	cals, err := f.Adapter.ListCalendars(ctx)
	if err != nil {
		return Fetch{}, err
	}

	ids := make([]string, 0, len(cals))
	sources := make([]schedule.Source, 0, len(cals))
	for _, c := range cals {
		ids = append(ids, c.ID)
		sources = append(sources, schedule.Source{
			Provider:    provider.Device,
			ID:          c.ID,
			DisplayName: c.Title,
			Color:       c.Color,
			Writable:    c.AllowsModifications,
		})
	}

	raw, err := f.Adapter.FetchEvents(ctx, ids, window)
	if err != nil {
		return Fetch{}, err
	}

	events := make([]schedule.Event, 0, len(raw))
	for _, r := range raw {
		events = append(events, normalize.DeviceEvent(r))
	}
	return Fetch{
		Contribution: schedule.Contribution{Provider: provider.Device, Events: events},
		Sources:      sources,
	}, nil
}
