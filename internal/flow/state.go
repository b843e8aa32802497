// Package flow is the client-side booking flow: attendee choice, slot choice,
// submission and confirmation. Transition is a pure function over a closed set of
// states and events; Controller runs the effects it asks for.
package flow

import (
	"errors"
	"fmt"

	"booking-service/internal/models"
)

var (
	ErrInvalidEvent    = errors.New("event not allowed in current state")
	ErrSlotUnavailable = errors.New("slot is not available")
)

const ConflictNotice = "That time was just taken. Availability has been refreshed, please pick another slot."

// State is one of SelectingAttendee, SelectingSlot, Submitting or Confirmed.
type State interface {
	Name() string
	isState()
}

type SelectingAttendee struct{}

// SelectingSlot shows availability for one attendee, date and zone. RequestID
// identifies the availability fetch whose answer the state is waiting for.
type SelectingSlot struct {
	Attendee  string
	Date      models.Date
	Timezone  string
	Slots     []models.TimeSlot
	Loading   bool
	RequestID uint64
	Err       error
	Notice    string
}

type Submitting struct {
	Selection SelectingSlot
	Slot      models.TimeSlot
	Request   models.BookingRequest
	RequestID uint64
}

type Confirmed struct {
	Booking models.Booking
}

func (SelectingAttendee) Name() string { return "SelectingAttendee" }
func (SelectingSlot) Name() string     { return "SelectingSlot" }
func (Submitting) Name() string        { return "Submitting" }
func (Confirmed) Name() string         { return "Confirmed" }

func (SelectingAttendee) isState() {}
func (SelectingSlot) isState()     {}
func (Submitting) isState()        {}
func (Confirmed) isState()         {}

type Event interface{ isEvent() }

type (
	AttendeeChosen struct {
		Attendee  string
		Date      models.Date
		Timezone  string
		RequestID uint64
	}
	DateChanged struct {
		Date      models.Date
		RequestID uint64
	}
	TimezoneChanged struct {
		Timezone  string
		RequestID uint64
	}
	Refresh struct {
		RequestID uint64
	}
	AvailabilityLoaded struct {
		RequestID uint64
		Slots     []models.TimeSlot
	}
	AvailabilityFailed struct {
		RequestID uint64
		Err       error
	}
	SlotChosen struct {
		Slot            models.TimeSlot
		Lead            models.Lead
		DurationMinutes int
		RequestID       uint64
	}
	ReservationSucceeded struct {
		RequestID uint64
		Booking   models.Booking
	}
	ReservationFailed struct {
		RequestID uint64
		Err       error
	}
	Reset struct{}
)

func (AttendeeChosen) isEvent()       {}
func (DateChanged) isEvent()          {}
func (TimezoneChanged) isEvent()      {}
func (Refresh) isEvent()              {}
func (AvailabilityLoaded) isEvent()   {}
func (AvailabilityFailed) isEvent()   {}
func (SlotChosen) isEvent()           {}
func (ReservationSucceeded) isEvent() {}
func (ReservationFailed) isEvent()    {}
func (Reset) isEvent()                {}

type Effect interface{ isEffect() }

type FetchAvailability struct {
	RequestID uint64
	Attendee  string
	Date      models.Date
	Timezone  string
}

type SubmitReservation struct {
	RequestID uint64
	Request   models.BookingRequest
}

func (FetchAvailability) isEffect() {}
func (SubmitReservation) isEffect() {}

// Transition computes the next state. Responses whose RequestID no longer matches
// the state are dropped without error and without effects.
func Transition(s State, e Event) (State, []Effect, error) {
	if _, ok := e.(Reset); ok {
		return SelectingAttendee{}, nil, nil
	}

	switch st := s.(type) {
	case SelectingAttendee:
		if ev, ok := e.(AttendeeChosen); ok {
			next := SelectingSlot{Attendee: ev.Attendee, Date: ev.Date, Timezone: ev.Timezone}
			return fetch(next, ev.RequestID)
		}
		if isStaleResponse(e) {
			return st, nil, nil
		}

	case SelectingSlot:
		switch ev := e.(type) {
		case DateChanged:
			st.Date = ev.Date
			return fetch(withoutResults(st), ev.RequestID)
		case TimezoneChanged:
			st.Timezone = ev.Timezone
			return fetch(withoutResults(st), ev.RequestID)
		case Refresh:
			return fetch(withoutResults(st), ev.RequestID)
		case AvailabilityLoaded:
			if ev.RequestID != st.RequestID || !st.Loading {
				return st, nil, nil
			}
			st.Slots = ev.Slots
			st.Loading = false
			st.Err = nil
			return st, nil, nil
		case AvailabilityFailed:
			if ev.RequestID != st.RequestID || !st.Loading {
				return st, nil, nil
			}
			st.Loading = false
			st.Err = ev.Err
			return st, nil, nil
		case SlotChosen:
			if st.Loading || !offered(st.Slots, ev.Slot) {
				return st, nil, ErrSlotUnavailable
			}
			duration := ev.DurationMinutes
			if duration == 0 {
				duration = ev.Slot.DurationMinutes
			}
			req := models.BookingRequest{
				AttendeeType:    st.Attendee,
				Lead:            ev.Lead,
				Start:           ev.Slot.StartTime,
				Timezone:        st.Timezone,
				DurationMinutes: duration,
			}
			st.Err = nil
			st.Notice = ""
			next := Submitting{Selection: st, Slot: ev.Slot, Request: req, RequestID: ev.RequestID}
			return next, []Effect{SubmitReservation{RequestID: ev.RequestID, Request: req}}, nil
		}
		if isStaleResponse(e) {
			return st, nil, nil
		}

	case Submitting:
		switch ev := e.(type) {
		case ReservationSucceeded:
			if ev.RequestID != st.RequestID {
				return st, nil, nil
			}
			return Confirmed{Booking: ev.Booking}, nil, nil
		case ReservationFailed:
			if ev.RequestID != st.RequestID {
				return st, nil, nil
			}
			back := st.Selection
			if errors.Is(ev.Err, models.ErrSlotConflict) || errors.Is(ev.Err, models.ErrInPast) {
				back.Slots = markTaken(back.Slots, st.Slot)
				back.Notice = ConflictNotice
				back.Loading = true
				back.RequestID = ev.RequestID
				return back, []Effect{FetchAvailability{
					RequestID: ev.RequestID,
					Attendee:  back.Attendee,
					Date:      back.Date,
					Timezone:  back.Timezone,
				}}, nil
			}
			back.Err = ev.Err
			return back, nil, nil
		}
		if isStaleResponse(e) {
			return st, nil, nil
		}

	case Confirmed:
		if isStaleResponse(e) {
			return st, nil, nil
		}
	}
	return s, nil, fmt.Errorf("%w: %T in %s", ErrInvalidEvent, e, s.Name())
}

// Retryable reports whether the selection state carries an error the user can
// retry with Refresh or by choosing again.
func (s SelectingSlot) Retryable() bool {
	return s.Err != nil && !errors.Is(s.Err, models.ErrInvalidAttendee) && !errors.Is(s.Err, models.ErrInvalidTimezone)
}

func fetch(s SelectingSlot, id uint64) (State, []Effect, error) {
	s.Loading = true
	s.RequestID = id
	return s, []Effect{FetchAvailability{RequestID: id, Attendee: s.Attendee, Date: s.Date, Timezone: s.Timezone}}, nil
}

func withoutResults(s SelectingSlot) SelectingSlot {
	s.Slots = nil
	s.Err = nil
	s.Notice = ""
	return s
}

func offered(slots []models.TimeSlot, slot models.TimeSlot) bool {
	for _, s := range slots {
		if s.StartTime.Equal(slot.StartTime) && s.DurationMinutes == slot.DurationMinutes {
			return s.Available
		}
	}
	return false
}

func markTaken(slots []models.TimeSlot, taken models.TimeSlot) []models.TimeSlot {
	out := make([]models.TimeSlot, len(slots))
	copy(out, slots)
	for i := range out {
		if out[i].StartTime.Equal(taken.StartTime) {
			out[i].Available = false
		}
	}
	return out
}

func isStaleResponse(e Event) bool {
	switch e.(type) {
	case AvailabilityLoaded, AvailabilityFailed, ReservationSucceeded, ReservationFailed:
		return true
	}
	return false
}
