// Package store persists meetings and guards against double booking.
//
// Every non-terminal meeting owns one claim per (individual, 15-minute bucket) it
// occupies. Claims are unique, so inserting them is the conflict check: two
// reservations that overlap for the same individual cannot both commit.
package store

import (
	"context"
	"errors"
	"time"

	"booking-service/internal/models"
)

type Store interface {
	// Reserve atomically claims the interval for every individual and inserts the
	// meeting as requested. Fails with models.ErrSlotConflict and writes nothing
	// if any claim is already held.
	Reserve(ctx context.Context, r models.Reservation) (models.Meeting, error)
	Confirm(ctx context.Context, id string) (models.Meeting, error)
	Cancel(ctx context.Context, id string) (models.Meeting, error)
	Get(ctx context.Context, id string) (models.Meeting, error)
	// List returns meetings of any status starting in [from, to). Zero bounds are open.
	List(ctx context.Context, individuals []string, from, to time.Time) ([]models.Meeting, error)
	// FindByDateRange returns meetings that currently block time for any of the
	// individuals and overlap [from, to): confirmed ones and requested ones that
	// are not yet abandoned.
	FindByDateRange(ctx context.Context, individuals []string, from, to time.Time) ([]models.Meeting, error)
	// AttachEvent records the calendar event of a confirmed meeting. Only the first
	// writer wins; later calls fail with ErrEventAttached.
	AttachEvent(ctx context.Context, id, eventID, joinLink string) (models.Meeting, error)
	// ReapAbandoned fails requested meetings older than the abandon timeout and
	// releases their claims.
	ReapAbandoned(ctx context.Context) (int, error)
	Close()
}

// ErrEventAttached is returned by AttachEvent when the meeting already has an event.
var ErrEventAttached = errors.New("calendar event already attached")

// Options shared by the implementations.
type Options struct {
	Clock        models.Clock
	AbandonAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = models.SystemClock{}
	}
	if o.AbandonAfter <= 0 {
		o.AbandonAfter = 5 * time.Minute
	}
	return o
}

func (o Options) cutoff() time.Time {
	return o.Clock.Now().Add(-o.AbandonAfter)
}

// blocking reports whether m holds its time as of cutoff.
func blocking(m models.Meeting, cutoff time.Time) bool {
	switch m.Status {
	case models.StatusConfirmed:
		return true
	case models.StatusRequested:
		return !m.CreatedAt.Before(cutoff)
	}
	return false
}
