package flow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"booking-service/internal/models"
)

// Backend is what the flow needs from the booking API. Both the in-process
// booking.Service and the HTTP client satisfy it.
type Backend interface {
	Availability(ctx context.Context, attendeeType string, date models.Date, timezone string) ([]models.TimeSlot, error)
	Book(ctx context.Context, req models.BookingRequest) (models.Booking, error)
}

// TimezoneResolver supplies the viewer's IANA zone.
type TimezoneResolver interface {
	Timezone() string
}

// EnvTimezone resolves from $TZ, then the process local zone, then UTC.
type EnvTimezone struct{}

func (EnvTimezone) Timezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}

// FixedTimezone always resolves to the given zone.
type FixedTimezone string

func (z FixedTimezone) Timezone() string { return string(z) }

type ControllerOptions struct {
	Clock    models.Clock
	Timezone TimezoneResolver

	// Lead is the identity captured by the upstream contact form.
	Lead            models.Lead
	DurationMinutes int

	// OnChange, when set, is called with every new state.
	OnChange func(State)
}

// Controller drives a single booking flow. Methods block until the backend call
// they trigger has finished. It is safe to call them from several goroutines; a
// response is only applied if the state still waits for it.
type Controller struct {
	backend Backend
	opts    ControllerOptions

	mu       sync.Mutex
	state    State
	nextID   uint64
	inflight map[uint64]context.CancelFunc
}

func NewController(backend Backend, opts ControllerOptions) *Controller {
	if opts.Clock == nil {
		opts.Clock = models.SystemClock{}
	}
	if opts.Timezone == nil {
		opts.Timezone = EnvTimezone{}
	}
	return &Controller{
		backend:  backend,
		opts:     opts,
		state:    SelectingAttendee{},
		inflight: map[uint64]context.CancelFunc{},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ChooseAttendee moves to slot selection for today in the resolved zone.
func (c *Controller) ChooseAttendee(ctx context.Context, attendeeType string) error {
	tz := c.opts.Timezone.Timezone()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		tz, loc = "UTC", time.UTC
	}
	today := models.DateOf(c.opts.Clock.Now().In(loc))
	return c.dispatch(ctx, func(id uint64) Event {
		return AttendeeChosen{Attendee: attendeeType, Date: today, Timezone: tz, RequestID: id}
	})
}

func (c *Controller) ChangeDate(ctx context.Context, date models.Date) error {
	return c.dispatch(ctx, func(id uint64) Event { return DateChanged{Date: date, RequestID: id} })
}

func (c *Controller) ChangeTimezone(ctx context.Context, timezone string) error {
	return c.dispatch(ctx, func(id uint64) Event { return TimezoneChanged{Timezone: timezone, RequestID: id} })
}

func (c *Controller) Refresh(ctx context.Context) error {
	return c.dispatch(ctx, func(id uint64) Event { return Refresh{RequestID: id} })
}

func (c *Controller) ChooseSlot(ctx context.Context, slot models.TimeSlot) error {
	return c.dispatch(ctx, func(id uint64) Event {
		return SlotChosen{Slot: slot, Lead: c.opts.Lead, DurationMinutes: c.opts.DurationMinutes, RequestID: id}
	})
}

// Reset returns the flow to its initial state and aborts in-flight requests.
// Committed server state is left alone.
func (c *Controller) Reset() {
	c.mu.Lock()
	for id, cancel := range c.inflight {
		cancel()
		delete(c.inflight, id)
	}
	c.mu.Unlock()
	_, _ = c.apply(Reset{})
}

func (c *Controller) dispatch(ctx context.Context, mk func(id uint64) Event) error {
	c.mu.Lock()
	c.nextID++
	e := mk(c.nextID)
	effects, err := c.applyLocked(e)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.run(ctx, effects)
}

func (c *Controller) apply(e Event) ([]Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(e)
}

func (c *Controller) applyLocked(e Event) ([]Effect, error) {
	next, effects, err := Transition(c.state, e)
	if err != nil {
		return nil, err
	}
	c.state = next
	if c.opts.OnChange != nil {
		c.opts.OnChange(next)
	}
	return effects, nil
}

func (c *Controller) run(ctx context.Context, effects []Effect) error {
	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]

		var result Event
		switch e := eff.(type) {
		case FetchAvailability:
			cctx := c.track(ctx, e.RequestID)
			slots, err := c.backend.Availability(cctx, e.Attendee, e.Date, e.Timezone)
			c.untrack(e.RequestID)
			if err != nil {
				result = AvailabilityFailed{RequestID: e.RequestID, Err: classify(err)}
			} else {
				result = AvailabilityLoaded{RequestID: e.RequestID, Slots: slots}
			}
		case SubmitReservation:
			cctx := c.track(ctx, e.RequestID)
			b, err := c.backend.Book(cctx, e.Request)
			c.untrack(e.RequestID)
			if err != nil {
				result = ReservationFailed{RequestID: e.RequestID, Err: classify(err)}
			} else {
				result = ReservationSucceeded{RequestID: e.RequestID, Booking: b}
			}
		default:
			return fmt.Errorf("unknown effect %T", eff)
		}

		more, err := c.apply(result)
		if err != nil {
			return err
		}
		effects = append(effects, more...)
	}
	return nil
}

// track derives a cancellable context for a request so that Reset can abort it.
func (c *Controller) track(ctx context.Context, id uint64) context.Context {
	cctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.inflight[id] = cancel
	c.mu.Unlock()
	return cctx
}

func (c *Controller) untrack(id uint64) {
	c.mu.Lock()
	if cancel, ok := c.inflight[id]; ok {
		cancel()
		delete(c.inflight, id)
	}
	c.mu.Unlock()
}

// classify maps anything that is not a known booking error to ErrNetwork so the
// flow treats it as retryable.
func classify(err error) error {
	for _, known := range []error{
		models.ErrSlotConflict, models.ErrInPast, models.ErrOutsideWorkingHours, models.ErrInvalidAttendee,
		models.ErrInvalidTimezone, models.ErrInvalidRequest, models.ErrNetwork, models.ErrNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", models.ErrNetwork, err)
}
