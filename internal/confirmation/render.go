// Package confirmation formats confirmed meetings for people and calendar apps.
// Nothing here performs I/O; output depends only on the inputs.
package confirmation

import (
	"fmt"
	"time"

	"booking-service/internal/models"
)

const PendingNotice = "Your meeting is booked. The calendar invite is on its way and will follow by email."

type Confirmation struct {
	Title           string
	Date            string
	TimeRange       string
	Timezone        string
	JoinLink        string
	Notice          string
	CalendarPending bool
}

// Render formats b for display in loc. A nil loc falls back to the zone the
// meeting was booked in, then UTC.
func Render(b models.Booking, loc *time.Location) Confirmation {
	if loc == nil {
		loc = bookedLocation(b.Meeting)
	}
	start := b.ScheduledStart.In(loc)
	end := b.End().In(loc)

	c := Confirmation{
		Title:     fmt.Sprintf("Meeting with %s", b.AttendeeType),
		Date:      start.Format("Monday, January 2, 2006"),
		TimeRange: fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), end.Format("MST")),
		Timezone:  loc.String(),
		JoinLink:  b.ExternalJoinLink,
	}
	// A created event without a conference link is not pending.
	if b.CalendarPending || b.ExternalEventID == "" {
		c.CalendarPending = true
		c.Notice = PendingNotice
	}
	return c
}

func (c Confirmation) String() string {
	s := fmt.Sprintf("%s\n%s\n%s (%s)\n", c.Title, c.Date, c.TimeRange, c.Timezone)
	if c.JoinLink != "" {
		s += "Join: " + c.JoinLink + "\n"
	}
	if c.Notice != "" {
		s += c.Notice + "\n"
	}
	return s
}

func bookedLocation(m models.Meeting) *time.Location {
	if m.Timezone != "" {
		if loc, err := time.LoadLocation(m.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}
