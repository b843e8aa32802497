// Package calendar creates calendar invites and video-call links for confirmed
// meetings. Providers are interchangeable behind Provider.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"booking-service/internal/models"
)

var ErrNotConfigured = errors.New("calendar provider not configured")

// Event is what a provider hands back for a created invite.
type Event struct {
	ExternalEventID string
	JoinLink        string
}

type Provider interface {
	CreateEvent(ctx context.Context, m models.Meeting) (Event, error)
}

// Disabled is used when no provider is configured. Every call fails, which leaves
// meetings confirmed with the invite pending.
type Disabled struct{}

func (Disabled) CreateEvent(ctx context.Context, m models.Meeting) (Event, error) {
	return Event{}, ErrNotConfigured
}

// Summary is the invite title shared by all providers.
func Summary(m models.Meeting) string {
	return fmt.Sprintf("Fusion Data Co intro call with %s", m.AttendeeName)
}

// Description is the invite body shared by all providers.
func Description(m models.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booked by %s <%s>", m.AttendeeName, m.AttendeeEmail)
	if m.AttendeePhone != "" {
		fmt.Fprintf(&b, ", phone %s", m.AttendeePhone)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Meeting with: %s.\n", m.AttendeeType)
	fmt.Fprintf(&b, "Reference: %s", m.ID)
	return b.String()
}
