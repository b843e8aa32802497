// Package booking ties availability, the meeting store and the calendar adapter
// together into the public booking operations.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"booking-service/internal/availability"
	"booking-service/internal/calendar"
	"booking-service/internal/models"
	"booking-service/internal/store"
)

const defaultCalendarTimeout = 20 * time.Second

// InviteScheduler queues a later attempt at creating a meeting's calendar invite.
type InviteScheduler interface {
	ScheduleInviteRetry(ctx context.Context, meetingID string) error
}

type Service struct {
	dir             *models.Directory
	store           store.Store
	calc            *availability.Calculator
	calendar        calendar.Provider
	invites         InviteScheduler
	logger          *slog.Logger
	calendarTimeout time.Duration
}

type Options struct {
	Directory       *models.Directory
	Store           store.Store
	Calendar        calendar.Provider
	Invites         InviteScheduler // optional; receives meetings whose invite failed
	Clock           models.Clock
	Logger          *slog.Logger
	SlotMinutes     int
	CalendarTimeout time.Duration
}

func NewService(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = models.SystemClock{}
	}
	if opts.Calendar == nil {
		opts.Calendar = calendar.Disabled{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CalendarTimeout <= 0 {
		opts.CalendarTimeout = defaultCalendarTimeout
	}
	return &Service{
		dir:             opts.Directory,
		store:           opts.Store,
		calc:            availability.NewCalculator(opts.Directory, opts.Store, opts.Clock, opts.SlotMinutes),
		calendar:        opts.Calendar,
		invites:         opts.Invites,
		logger:          opts.Logger,
		calendarTimeout: opts.CalendarTimeout,
	}
}

func (s *Service) Attendees() []models.Attendee {
	return s.dir.Attendees()
}

func (s *Service) DefaultDuration() int {
	return s.calc.SlotMinutes()
}

func (s *Service) Availability(ctx context.Context, attendeeType string, date models.Date, timezone string) ([]models.TimeSlot, error) {
	return s.calc.Availability(ctx, attendeeType, date, timezone)
}

// Book reserves the requested interval and confirms it. The calendar invite is
// created only after the reservation is committed; if that fails the booking is
// still returned, marked CalendarPending.
func (s *Service) Book(ctx context.Context, req models.BookingRequest) (models.Booking, error) {
	attendee, err := s.dir.Lookup(req.AttendeeType)
	if err != nil {
		return models.Booking{}, err
	}
	if _, err := availability.LoadLocation(req.Timezone); err != nil {
		return models.Booking{}, err
	}
	lead, err := normalizeLead(req.Lead)
	if err != nil {
		return models.Booking{}, err
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = s.calc.SlotMinutes()
	}
	if req.DurationMinutes < models.MinDurationMinutes || req.DurationMinutes > models.MaxDurationMinutes ||
		req.DurationMinutes%models.ClaimMinutes != 0 {
		return models.Booking{}, fmt.Errorf("%w: duration must be between %d and %d minutes in steps of %d",
			models.ErrInvalidRequest, models.MinDurationMinutes, models.MaxDurationMinutes, models.ClaimMinutes)
	}
	if err := s.calc.Bookable(attendee, req.Start, req.DurationMinutes); err != nil {
		return models.Booking{}, err
	}

	m, err := s.store.Reserve(ctx, models.Reservation{
		AttendeeType:    attendee.Type,
		Individuals:     models.SortedIDs(attendee),
		Lead:            lead,
		Start:           req.Start.UTC(),
		DurationMinutes: req.DurationMinutes,
		Timezone:        req.Timezone,
	})
	if err != nil {
		if errors.Is(err, models.ErrSlotConflict) {
			s.logger.Info("Slot conflict", "attendeeType", attendee.Type, "start", req.Start.UTC())
		}
		return models.Booking{}, err
	}

	// The reservation is committed; a client that goes away now must not leave it
	// half done.
	detached := context.WithoutCancel(ctx)
	m, err = s.store.Confirm(detached, m.ID)
	if err != nil {
		return models.Booking{}, fmt.Errorf("failed to confirm meeting: %w", err)
	}
	s.logger.Info("Meeting confirmed", "meetingID", m.ID, "attendeeType", m.AttendeeType, "start", m.ScheduledStart)

	b := s.attachCalendarEvent(detached, m)
	if b.CalendarPending && s.invites != nil {
		if err := s.invites.ScheduleInviteRetry(detached, m.ID); err != nil {
			s.logger.Error("Failed to schedule invite retry", "meetingID", m.ID, "error", err)
		}
	}
	return b, nil
}

// RetryCalendarEvent re-runs invite creation for a confirmed meeting whose earlier
// attempt failed. Meetings that already have an event are returned unchanged.
func (s *Service) RetryCalendarEvent(ctx context.Context, id string) (models.Booking, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if m.Status != models.StatusConfirmed {
		return models.Booking{}, fmt.Errorf("%w: meeting is %s", models.ErrInvalidTransition, m.Status)
	}
	if m.ExternalEventID != "" {
		return models.Booking{Meeting: m}, nil
	}
	return s.attachCalendarEvent(ctx, m), nil
}

func (s *Service) attachCalendarEvent(ctx context.Context, m models.Meeting) models.Booking {
	cctx, cancel := context.WithTimeout(ctx, s.calendarTimeout)
	defer cancel()

	ev, err := s.calendar.CreateEvent(cctx, m)
	if err != nil {
		s.logger.Warn("Calendar event creation failed, invite pending", "meetingID", m.ID, "error", err)
		return models.Booking{Meeting: m, CalendarPending: true}
	}
	updated, err := s.store.AttachEvent(ctx, m.ID, ev.ExternalEventID, ev.JoinLink)
	if errors.Is(err, store.ErrEventAttached) {
		s.logger.Info("Calendar event already recorded", "meetingID", m.ID, "eventID", updated.ExternalEventID)
		return models.Booking{Meeting: updated}
	}
	if err != nil {
		s.logger.Error("Failed to record calendar event", "meetingID", m.ID, "eventID", ev.ExternalEventID, "error", err)
		return models.Booking{Meeting: m, CalendarPending: true}
	}
	return models.Booking{Meeting: updated}
}

func (s *Service) Get(ctx context.Context, id string) (models.Booking, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	return models.Booking{Meeting: m, CalendarPending: m.Status == models.StatusConfirmed && m.ExternalEventID == ""}, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (models.Meeting, error) {
	m, err := s.store.Cancel(ctx, id)
	if err != nil {
		return models.Meeting{}, err
	}
	s.logger.Info("Meeting cancelled", "meetingID", id)
	return m, nil
}

// List returns meetings of all statuses. An empty attendeeType lists everyone.
func (s *Service) List(ctx context.Context, attendeeType string, from, to time.Time) ([]models.Meeting, error) {
	var individuals []string
	if attendeeType != "" {
		a, err := s.dir.Lookup(attendeeType)
		if err != nil {
			return nil, err
		}
		individuals = a.Members
	}
	return s.store.List(ctx, individuals, from, to)
}

func normalizeLead(l models.Lead) (models.Lead, error) {
	l.Name = strings.TrimSpace(l.Name)
	l.Email = strings.TrimSpace(l.Email)
	l.Phone = strings.TrimSpace(l.Phone)
	if l.Name == "" {
		return l, fmt.Errorf("%w: attendee name required", models.ErrInvalidRequest)
	}
	addr, err := mail.ParseAddress(l.Email)
	if err != nil || addr.Address != l.Email {
		return l, fmt.Errorf("%w: invalid attendee email", models.ErrInvalidRequest)
	}
	return l, nil
}
