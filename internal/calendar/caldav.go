package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"booking-service/internal/models"
)

type CalDAVConfig struct {
	Endpoint     string
	Username     string
	Password     string
	CalendarPath string
	LinkTemplate string
}

// CalDAV stores invites as calendar objects on any CalDAV server. It has no video
// service of its own; the join link comes from the link template.
type CalDAV struct {
	client       *caldav.Client
	calendarPath string
	links        *LinkTemplate
	logger       *slog.Logger
}

func NewCalDAV(logger *slog.Logger, cfg CalDAVConfig) (*CalDAV, error) {
	if cfg.Endpoint == "" || cfg.CalendarPath == "" {
		return nil, fmt.Errorf("%w: caldav endpoint and calendar path required", ErrNotConfigured)
	}
	links, err := NewLinkTemplate(cfg.LinkTemplate)
	if err != nil {
		return nil, err
	}
	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: 15 * time.Second}, cfg.Username, cfg.Password)
	client, err := caldav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return &CalDAV{client: client, calendarPath: cfg.CalendarPath, links: links, logger: logger}, nil
}

func (c *CalDAV) CreateEvent(ctx context.Context, m models.Meeting) (Event, error) {
	link := c.links.Link(m)
	uid := m.ID + "@fusiondata.co"

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, Summary(m))
	ve.Props.SetText(ical.PropDescription, Description(m))
	ve.Props.SetText(ical.PropLocation, link)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, m.CreatedAt.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, m.ScheduledStart.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, m.End().UTC())
	attendee := ical.NewProp(ical.PropAttendee)
	attendee.Params.Set(ical.ParamCommonName, m.AttendeeName)
	attendee.Value = "mailto:" + m.AttendeeEmail
	ve.Props.Add(attendee)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Fusion Data Co//Booking//EN")
	cal.Children = append(cal.Children, ve)

	objPath := path.Join(c.calendarPath, m.ID+".ics")
	if _, err := c.client.PutCalendarObject(ctx, objPath, cal); err != nil {
		return Event{}, fmt.Errorf("failed to put calendar object: %w", err)
	}
	c.logger.Info("Stored CalDAV event", "meetingID", m.ID, "path", objPath)
	return Event{ExternalEventID: uid, JoinLink: link}, nil
}
