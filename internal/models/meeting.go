package models

import (
	"fmt"
	"time"
)

// ClaimMinutes is the granularity of the per-individual reservation grid.
const ClaimMinutes = 15

const (
	MinDurationMinutes = ClaimMinutes
	MaxDurationMinutes = 240
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// CanTransition reports whether a meeting may move from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusRequested:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusFailed
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusFailed
}

// TimeSlot is a derived, never persisted, candidate interval.
type TimeSlot struct {
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Available       bool      `json:"available"`
}

func NewTimeSlot(start time.Time, minutes int, available bool) TimeSlot {
	return TimeSlot{
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Available:       available,
	}
}

// Lead is the contact identity handed over by upstream form flows.
type Lead struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Meeting struct {
	ID               string    `json:"id"`
	AttendeeType     string    `json:"attendeeType"`
	Individuals      []string  `json:"individuals"`
	AttendeeName     string    `json:"attendeeName"`
	AttendeeEmail    string    `json:"attendeeEmail"`
	AttendeePhone    string    `json:"attendeePhone,omitempty"`
	ScheduledStart   time.Time `json:"scheduledStart"`
	Timezone         string    `json:"timezone"`
	DurationMinutes  int       `json:"durationMinutes"`
	Status           Status    `json:"status"`
	ExternalEventID  string    `json:"externalEventId,omitempty"`
	ExternalJoinLink string    `json:"externalJoinLink,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (m Meeting) End() time.Time {
	return m.ScheduledStart.Add(time.Duration(m.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the meeting intersects the half-open interval [from, to).
func (m Meeting) Overlaps(from, to time.Time) bool {
	return m.ScheduledStart.Before(to) && m.End().After(from)
}

// Involves reports whether any of ids is among the meeting's individuals.
func (m Meeting) Involves(ids []string) bool {
	for _, a := range m.Individuals {
		for _, b := range ids {
			if a == b {
				return true
			}
		}
	}
	return false
}

// Reservation is a request to hold an interval for a set of individuals.
type Reservation struct {
	AttendeeType    string
	Individuals     []string
	Lead            Lead
	Start           time.Time
	DurationMinutes int
	Timezone        string
}

// Claims expands the reservation to the (individual, bucket) pairs it occupies.
func (r Reservation) Claims() ([]Claim, error) {
	if r.DurationMinutes < MinDurationMinutes || r.DurationMinutes%ClaimMinutes != 0 {
		return nil, fmt.Errorf("%w: duration must be a positive multiple of %d minutes", ErrInvalidRequest, ClaimMinutes)
	}
	if !Aligned(r.Start) {
		return nil, fmt.Errorf("%w: start must fall on a %d minute boundary", ErrInvalidRequest, ClaimMinutes)
	}
	start := r.Start.UTC()
	n := r.DurationMinutes / ClaimMinutes
	out := make([]Claim, 0, n*len(r.Individuals))
	for _, ind := range r.Individuals {
		for i := 0; i < n; i++ {
			out = append(out, Claim{
				Individual: ind,
				Bucket:     start.Add(time.Duration(i*ClaimMinutes) * time.Minute),
			})
		}
	}
	return out, nil
}

// Claim is one reserved bucket of one individual's time.
type Claim struct {
	Individual string
	Bucket     time.Time
}

// Aligned reports whether t sits on the absolute claim grid.
func Aligned(t time.Time) bool {
	return t.Nanosecond() == 0 && t.Unix()%(ClaimMinutes*60) == 0
}

// BookingRequest is the input of a meeting creation.
type BookingRequest struct {
	AttendeeType    string
	Lead            Lead
	Start           time.Time
	Timezone        string
	DurationMinutes int
}

// Booking is the result of a meeting creation. CalendarPending marks a degraded
// confirmation: the slot is held but the calendar invite could not be created.
type Booking struct {
	Meeting
	CalendarPending bool `json:"calendarPending"`
}
