package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/calhub/calhub/internal/logging"
	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/schedule"
)

// primaryCalendarID is the provider alias for the user's main calendar.
const primaryCalendarID = "primary"

// Client wraps the Google Calendar and userinfo services for one access
// token. It is rebuilt per sync cycle; token refresh is the auth manager's
// concern, not the client's.
type Client struct {
	svc    *calendar.Service
	user   *oauth2api.Service
	logger *slog.Logger
}

// NewClient creates a Calendar client authenticated with the given access
// token. Extra options (custom endpoint, HTTP client) are for tests.
func NewClient(ctx context.Context, accessToken string, opts ...option.ClientOption) (*Client, error) {
	if accessToken == "" {
		return nil, &provider.Error{Provider: provider.Google, Op: "newClient", Err: provider.ErrInvalidToken}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := httpClient.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	allOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := calendar.NewService(ctx, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	user, err := oauth2api.NewService(ctx, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	return &Client{
		svc:    svc,
		user:   user,
		logger: logging.WithProvider(slog.Default(), provider.Google),
	}, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	info, err := c.user.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, mapError("me", err)
	}
	return &Profile{
		ID:    info.Id,
		Email: info.Email,
		Name:  info.Name,
	}, nil
}

// ListCalendars enumerates the user's calendar list as source snapshots.
func (c *Client) ListCalendars(ctx context.Context) ([]schedule.Source, error) {
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, mapError("listCalendars", err)
	}

	var sources []schedule.Source
	for _, entry := range list.Items {
		sources = append(sources, toSource(entry))
	}
	return sources, nil
}

// ListEvents returns raw events from the primary calendar whose span
// intersects the window, following pagination until the listing is
// exhausted. The payloads are handed to the normalizer untouched.
func (c *Client) ListEvents(ctx context.Context, window provider.Window) ([]*calendar.Event, error) {
	var events []*calendar.Event
	pageToken := ""
	for {
		call := c.svc.Events.List(primaryCalendarID).
			TimeMin(window.Start.Format(time.RFC3339)).
			TimeMax(window.End.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, mapError("listEvents", err)
		}
		events = append(events, page.Items...)

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("fetched events",
		logging.Operation("listEvents"), slog.Int("count", len(events)))
	return events, nil
}

// ShareCalendar inserts an ACL rule granting role on the calendar to the
// given email and echoes the created grant.
func (c *Client) ShareCalendar(ctx context.Context, calendarID, email string, role schedule.Role) (*schedule.ShareGrant, error) {
	rule := &calendar.AclRule{
		Role: string(role),
		Scope: &calendar.AclRuleScope{
			Type:  "user",
			Value: email,
		},
	}

	created, err := c.svc.Acl.Insert(calendarID, rule).Context(ctx).Do()
	if err != nil {
		return nil, mapError("shareCalendar", err)
	}

	grant := &schedule.ShareGrant{
		CalendarID: calendarID,
		Email:      created.Scope.Value,
		Role:       schedule.Role(created.Role),
	}
	c.logger.Info("calendar shared",
		logging.Operation("shareCalendar"),
		logging.CalendarID(calendarID),
		logging.UserHash(email))
	return grant, nil
}

// mapError translates Google API failures into the provider taxonomy so
// callers can tell re-auth from backoff from transient outage.
func mapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 403 && isRateLimitReason(gerr) {
			return &provider.Error{Provider: provider.Google, Op: op, Err: provider.ErrRateLimited}
		}
		return provider.WrapStatus(provider.Google, op, gerr.Code)
	}
	return &provider.Error{
		Provider: provider.Google,
		Op:       op,
		Err:      fmt.Errorf("%w: %v", provider.ErrNetworkFailure, err),
	}
}

func isRateLimitReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}
