package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"booking-service/internal/models"
)

// MeetingFinder is the read side of the meeting store used to subtract booked time.
type MeetingFinder interface {
	FindByDateRange(ctx context.Context, individuals []string, from, to time.Time) ([]models.Meeting, error)
}

type Calculator struct {
	dir         *models.Directory
	meetings    MeetingFinder
	clock       models.Clock
	slotMinutes int
}

func NewCalculator(dir *models.Directory, meetings MeetingFinder, clock models.Clock, slotMinutes int) *Calculator {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	return &Calculator{dir: dir, meetings: meetings, clock: clock, slotMinutes: slotMinutes}
}

func (c *Calculator) SlotMinutes() int { return c.slotMinutes }

// LoadLocation resolves an IANA zone name. The empty string is rejected rather than
// silently meaning UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: timezone required", models.ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidTimezone, name)
	}
	return loc, nil
}

// Availability returns the slots starting on the calendar date in the given zone,
// ascending by start. The grid is anchored at each working interval's opening time
// so every viewer zone sees the same instants. Slots that are booked or already started are returned with
// Available=false; a date entirely in the past yields an empty list.
func (c *Calculator) Availability(ctx context.Context, attendeeType string, date models.Date, timezone string) ([]models.TimeSlot, error) {
	attendee, err := c.dir.Lookup(attendeeType)
	if err != nil {
		return nil, err
	}
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}

	from := date.Midnight(loc)
	to := date.AddDays(1).Midnight(loc)
	now := c.clock.Now()
	if !to.After(now) {
		return []models.TimeSlot{}, nil
	}

	members := c.dir.Members(attendee)
	working := c.commonHours(members, from, to)
	slotLen := time.Duration(c.slotMinutes) * time.Minute

	// A slot starting before midnight in the viewer's zone may run past it.
	busy, err := c.meetings.FindByDateRange(ctx, attendee.Members, from, to.Add(slotLen))
	if err != nil {
		return nil, fmt.Errorf("failed to load meetings: %w", err)
	}

	slots := []models.TimeSlot{}
	for _, iv := range working {
		for s := iv.start; !s.Add(slotLen).After(iv.end); s = s.Add(slotLen) {
			if s.Before(from) || !s.Before(to) {
				continue
			}
			e := s.Add(slotLen)
			available := !s.Before(now) && !overlapsAny(busy, s, e)
			slots = append(slots, models.NewTimeSlot(s.In(loc), c.slotMinutes, available))
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

// Bookable checks that [start, start+duration) lies on the claim grid, inside every
// member's working hours, and not in the past. It does not consult existing meetings;
// the store's reserve is authoritative for conflicts.
func (c *Calculator) Bookable(attendee models.Attendee, start time.Time, durationMinutes int) error {
	if !models.Aligned(start) {
		return fmt.Errorf("%w: start must fall on a %d minute boundary", models.ErrInvalidRequest, models.ClaimMinutes)
	}
	if start.Before(c.clock.Now()) {
		return models.ErrInPast
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	working := c.commonHours(c.dir.Members(attendee), start.Add(-24*time.Hour), end.Add(24*time.Hour))
	if !covers(working, start, end) {
		return models.ErrOutsideWorkingHours
	}
	return nil
}

func (c *Calculator) commonHours(members []models.Individual, from, to time.Time) []interval {
	var out []interval
	for i, m := range members {
		ivs := workingIntervals(m, from, to)
		if i == 0 {
			out = ivs
			continue
		}
		out = intersect(out, ivs)
	}
	return out
}

func overlapsAny(meetings []models.Meeting, from, to time.Time) bool {
	for _, m := range meetings {
		if m.Overlaps(from, to) {
			return true
		}
	}
	return false
}
