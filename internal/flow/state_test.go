package flow

import (
	"errors"
	"testing"
	"time"

	"booking-service/internal/models"
)

var (
	june10 = models.Date{Year: 2025, Month: time.June, Day: 10}
	nine   = time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
)

func loadedSelection() SelectingSlot {
	return SelectingSlot{
		Attendee:  "founder",
		Date:      june10,
		Timezone:  "America/New_York",
		RequestID: 1,
		Slots: []models.TimeSlot{
			models.NewTimeSlot(nine, 30, true),
			models.NewTimeSlot(nine.Add(30*time.Minute), 30, false),
		},
	}
}

func TestTransitionAttendeeChosenFetches(t *testing.T) {
	next, effects, err := Transition(SelectingAttendee{}, AttendeeChosen{Attendee: "founder", Date: june10, Timezone: "UTC", RequestID: 7})
	if err != nil {
		t.Fatal(err)
	}
	sel, ok := next.(SelectingSlot)
	if !ok || !sel.Loading || sel.RequestID != 7 {
		t.Fatalf("unexpected state %#v", next)
	}
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %d", len(effects))
	}
	fetch, ok := effects[0].(FetchAvailability)
	if !ok || fetch.RequestID != 7 || fetch.Attendee != "founder" || fetch.Date != june10 {
		t.Errorf("unexpected effect %#v", effects[0])
	}
}

func TestTransitionDropsStaleAvailability(t *testing.T) {
	sel := loadedSelection()
	sel.Loading = true
	sel.RequestID = 3
	sel.Slots = nil

	next, effects, err := Transition(sel, AvailabilityLoaded{RequestID: 2, Slots: loadedSelection().Slots})
	if err != nil || len(effects) != 0 {
		t.Fatalf("stale response should be a no-op, got %v %v", effects, err)
	}
	if got := next.(SelectingSlot); !got.Loading || got.Slots != nil {
		t.Errorf("stale response was applied: %#v", got)
	}

	next, _, _ = Transition(next, AvailabilityLoaded{RequestID: 3, Slots: loadedSelection().Slots})
	if got := next.(SelectingSlot); got.Loading || len(got.Slots) != 2 {
		t.Errorf("current response was not applied: %#v", got)
	}
}

func TestTransitionSlotChosen(t *testing.T) {
	lead := models.Lead{Name: "Ada", Email: "ada@example.com"}

	_, _, err := Transition(loadedSelection(), SlotChosen{Slot: loadedSelection().Slots[1], Lead: lead, RequestID: 2})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("choosing a taken slot: expected ErrSlotUnavailable, got %v", err)
	}

	next, effects, err := Transition(loadedSelection(), SlotChosen{Slot: loadedSelection().Slots[0], Lead: lead, RequestID: 2})
	if err != nil {
		t.Fatal(err)
	}
	sub, ok := next.(Submitting)
	if !ok {
		t.Fatalf("expected Submitting, got %s", next.Name())
	}
	if sub.Request.DurationMinutes != 30 || !sub.Request.Start.Equal(nine) || sub.Request.Timezone != "America/New_York" {
		t.Errorf("unexpected request %+v", sub.Request)
	}
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %d", len(effects))
	}
	if submit, ok := effects[0].(SubmitReservation); !ok || submit.RequestID != 2 {
		t.Errorf("unexpected effect %#v", effects[0])
	}
}

func submitting(t *testing.T) Submitting {
	t.Helper()
	next, _, err := Transition(loadedSelection(), SlotChosen{Slot: loadedSelection().Slots[0], RequestID: 2})
	if err != nil {
		t.Fatal(err)
	}
	return next.(Submitting)
}

func TestTransitionReservationOutcomes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		b := models.Booking{Meeting: models.Meeting{ID: "m1"}}
		next, _, err := Transition(submitting(t), ReservationSucceeded{RequestID: 2, Booking: b})
		if err != nil {
			t.Fatal(err)
		}
		if c, ok := next.(Confirmed); !ok || c.Booking.ID != "m1" {
			t.Errorf("expected Confirmed, got %#v", next)
		}
	})

	for _, cause := range []error{models.ErrSlotConflict, models.ErrInPast} {
		t.Run(cause.Error(), func(t *testing.T) {
			next, effects, err := Transition(submitting(t), ReservationFailed{RequestID: 2, Err: cause})
			if err != nil {
				t.Fatal(err)
			}
			sel, ok := next.(SelectingSlot)
			if !ok {
				t.Fatalf("expected SelectingSlot, got %s", next.Name())
			}
			if sel.Notice != ConflictNotice || !sel.Loading || sel.Slots[0].Available {
				t.Errorf("conflict should mark the slot taken and refetch: %#v", sel)
			}
			if len(effects) != 1 {
				t.Fatalf("expected a refetch, got %v", effects)
			}
			if f, ok := effects[0].(FetchAvailability); !ok || f.RequestID != 2 {
				t.Errorf("refetch should reuse the submit request id: %#v", effects[0])
			}
		})
	}

	t.Run("network", func(t *testing.T) {
		next, effects, err := Transition(submitting(t), ReservationFailed{RequestID: 2, Err: models.ErrNetwork})
		if err != nil || len(effects) != 0 {
			t.Fatalf("unexpected %v %v", effects, err)
		}
		sel := next.(SelectingSlot)
		if !sel.Retryable() || sel.Loading || !sel.Slots[0].Available {
			t.Errorf("network failure should keep the selection and be retryable: %#v", sel)
		}
	})

	t.Run("stale", func(t *testing.T) {
		next, _, err := Transition(submitting(t), ReservationSucceeded{RequestID: 99})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := next.(Submitting); !ok {
			t.Errorf("stale success must not confirm, got %s", next.Name())
		}
	})
}

func TestTransitionRejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		state State
		event Event
	}{
		{SelectingAttendee{}, SlotChosen{}},
		{SelectingAttendee{}, Refresh{}},
		{loadedSelection(), AttendeeChosen{}},
		{Submitting{}, SlotChosen{}},
		{Submitting{}, DateChanged{}},
		{Confirmed{}, Refresh{}},
	}
	for _, tt := range tests {
		next, _, err := Transition(tt.state, tt.event)
		if !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("%T in %s: expected ErrInvalidEvent, got %v", tt.event, tt.state.Name(), err)
		}
		if next.Name() != tt.state.Name() {
			t.Errorf("%T in %s: state changed to %s", tt.event, tt.state.Name(), next.Name())
		}
	}
}

func TestTransitionResetFromAnywhere(t *testing.T) {
	for _, s := range []State{SelectingAttendee{}, loadedSelection(), Submitting{}, Confirmed{}} {
		next, effects, err := Transition(s, Reset{})
		if err != nil || len(effects) != 0 {
			t.Fatalf("reset from %s: %v %v", s.Name(), effects, err)
		}
		if _, ok := next.(SelectingAttendee); !ok {
			t.Errorf("reset from %s landed in %s", s.Name(), next.Name())
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{models.ErrNetwork, true},
		{models.ErrOutsideWorkingHours, true},
		{models.ErrInvalidAttendee, false},
		{models.ErrInvalidTimezone, false},
	}
	for _, tt := range tests {
		if got := (SelectingSlot{Err: tt.err}).Retryable(); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
