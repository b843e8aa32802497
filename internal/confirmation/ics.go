package confirmation

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-ical"

	"booking-service/internal/calendar"
	"booking-service/internal/models"
)

const productID = "-//Fusion Data Co//Booking//EN"

// ICS encodes m as a single-event iCalendar file. DTSTAMP is the meeting's
// creation time so that the output is reproducible.
func ICS(m models.Meeting) ([]byte, error) {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, m.ID+"@fusiondata.co")
	ve.Props.SetDateTime(ical.PropDateTimeStamp, m.CreatedAt.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, m.ScheduledStart.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, m.End().UTC())
	ve.Props.SetText(ical.PropSummary, calendar.Summary(m))
	ve.Props.SetText(ical.PropDescription, calendar.Description(m))
	if m.ExternalJoinLink != "" {
		ve.Props.SetText(ical.PropLocation, m.ExternalJoinLink)
	}
	if m.Status == models.StatusCancelled {
		ve.Props.SetText(ical.PropStatus, "CANCELLED")
	} else {
		ve.Props.SetText(ical.PropStatus, "CONFIRMED")
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Children = append(cal.Children, ve)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func Filename(m models.Meeting) string {
	return fmt.Sprintf("meeting-%s.ics", m.ScheduledStart.UTC().Format("20060102-1504"))
}
