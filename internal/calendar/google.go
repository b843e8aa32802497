package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"booking-service/internal/models"
)

// GoogleConfig holds the OAuth2 client and the long-lived refresh token of the
// organizer account whose calendar receives the invites.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

// Google creates events with a Google Meet conference attached.
type Google struct {
	service    *gcal.Service
	calendarID string
	logger     *slog.Logger
}

func NewGoogle(ctx context.Context, logger *slog.Logger, cfg GoogleConfig) (*Google, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("%w: google client id, secret and refresh token required", ErrNotConfigured)
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gcal.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	srv, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Google{service: srv, calendarID: calendarID, logger: logger}, nil
}

// CreateEvent inserts the invite under an id derived from the meeting id, so a
// repeated attempt for the same meeting finds the existing event instead of adding
// a second one.
func (g *Google) CreateEvent(ctx context.Context, m models.Meeting) (Event, error) {
	ev := toGoogleEvent(m)
	created, err := g.service.Events.Insert(g.calendarID, ev).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		g.logger.Info("Google Calendar event already exists", "meetingID", m.ID, "eventID", ev.Id)
		created, err = g.service.Events.Get(g.calendarID, ev.Id).Context(ctx).Do()
	}
	if err != nil {
		return Event{}, fmt.Errorf("failed to insert event: %w", err)
	}

	g.logger.Info("Created Google Calendar event", "meetingID", m.ID, "eventID", created.Id)
	return Event{ExternalEventID: created.Id, JoinLink: joinLink(created)}, nil
}

// joinLink prefers the Meet link and falls back to the conference video entry point.
func joinLink(ev *gcal.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData == nil {
		return ""
	}
	for _, ep := range ev.ConferenceData.EntryPoints {
		if ep.EntryPointType == "video" {
			return ep.Uri
		}
	}
	return ""
}

// googleEventID maps a meeting id onto Google's event id alphabet (base32hex).
func googleEventID(meetingID string) string {
	return strings.ToLower(strings.ReplaceAll(meetingID, "-", ""))
}

func toGoogleEvent(m models.Meeting) *gcal.Event {
	tz := m.Timezone
	if _, err := time.LoadLocation(tz); err != nil || tz == "" {
		tz = "UTC"
	}
	return &gcal.Event{
		Id:          googleEventID(m.ID),
		Summary:     Summary(m),
		Description: Description(m),
		Start: &gcal.EventDateTime{
			DateTime: m.ScheduledStart.UTC().Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &gcal.EventDateTime{
			DateTime: m.End().UTC().Format(time.RFC3339),
			TimeZone: tz,
		},
		Attendees: []*gcal.EventAttendee{
			{Email: m.AttendeeEmail, DisplayName: m.AttendeeName},
		},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             m.ID,
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}
}
