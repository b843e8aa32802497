package confirmation

import (
	"strings"
	"testing"
	"time"

	"booking-service/internal/models"
)

func testMeeting() models.Meeting {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return models.Meeting{
		ID:               "8d1f0c0e-4b7a-4c55-9c3e-2b1f9c7e0a11",
		AttendeeType:     "founder",
		Individuals:      []string{"founder"},
		AttendeeName:     "Ada Lovelace",
		AttendeeEmail:    "ada@example.com",
		ScheduledStart:   time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC),
		Timezone:         "America/New_York",
		DurationMinutes:  30,
		Status:           models.StatusConfirmed,
		ExternalEventID:  "ev-1",
		ExternalJoinLink: "https://meet.example/abc",
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func TestRender(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		booking   models.Booking
		loc       *time.Location
		date      string
		timeRange string
		zone      string
		pending   bool
	}{
		{
			name:      "booked zone",
			booking:   models.Booking{Meeting: testMeeting()},
			date:      "Tuesday, June 10, 2025",
			timeRange: "9:00 AM - 9:30 AM EDT",
			zone:      "America/New_York",
		},
		{
			name:      "viewer zone crosses midnight",
			booking:   models.Booking{Meeting: testMeeting()},
			loc:       tokyo,
			date:      "Tuesday, June 10, 2025",
			timeRange: "10:00 PM - 10:30 PM JST",
			zone:      "Asia/Tokyo",
		},
		{
			name: "invite pending",
			booking: func() models.Booking {
				m := testMeeting()
				m.ExternalEventID = ""
				m.ExternalJoinLink = ""
				return models.Booking{Meeting: m, CalendarPending: true}
			}(),
			loc:       time.UTC,
			date:      "Tuesday, June 10, 2025",
			timeRange: "1:00 PM - 1:30 PM UTC",
			zone:      "UTC",
			pending:   true,
		},
		{
			name: "event without join link",
			booking: func() models.Booking {
				m := testMeeting()
				m.ExternalJoinLink = ""
				return models.Booking{Meeting: m}
			}(),
			loc:       time.UTC,
			date:      "Tuesday, June 10, 2025",
			timeRange: "1:00 PM - 1:30 PM UTC",
			zone:      "UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Render(tt.booking, tt.loc)
			if c.Date != tt.date {
				t.Errorf("date: expected %q, got %q", tt.date, c.Date)
			}
			if c.TimeRange != tt.timeRange {
				t.Errorf("time range: expected %q, got %q", tt.timeRange, c.TimeRange)
			}
			if c.Timezone != tt.zone {
				t.Errorf("timezone: expected %q, got %q", tt.zone, c.Timezone)
			}
			if c.CalendarPending != tt.pending {
				t.Errorf("pending: expected %v, got %v", tt.pending, c.CalendarPending)
			}
			if tt.pending && (c.Notice != PendingNotice || c.JoinLink != "") {
				t.Errorf("pending confirmation should carry the notice and no link: %+v", c)
			}
			if !tt.pending && c.Notice != "" {
				t.Errorf("expected no notice, got %q", c.Notice)
			}
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	b := models.Booking{Meeting: testMeeting()}
	first := Render(b, nil).String()
	for i := 0; i < 5; i++ {
		if got := Render(b, nil).String(); got != first {
			t.Fatalf("output changed between calls:\n%s\n%s", first, got)
		}
	}
	if !strings.Contains(first, "Join: https://meet.example/abc") {
		t.Errorf("missing join line in %q", first)
	}
}

func TestRenderUnknownZoneFallsBackToUTC(t *testing.T) {
	m := testMeeting()
	m.Timezone = "Mars/Olympus"
	c := Render(models.Booking{Meeting: m}, nil)
	if c.Timezone != "UTC" {
		t.Errorf("expected UTC fallback, got %q", c.Timezone)
	}
}
