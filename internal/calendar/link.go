package calendar

import (
	"context"
	"fmt"
	"strings"

	"booking-service/internal/models"
)

// LinkTemplate builds a join link from a template without talking to any calendar
// system. "{id}" in the template is replaced with the meeting id.
type LinkTemplate struct {
	Template string
}

func NewLinkTemplate(tmpl string) (*LinkTemplate, error) {
	if !strings.Contains(tmpl, "{id}") {
		return nil, fmt.Errorf("meeting link template must contain {id}: %q", tmpl)
	}
	return &LinkTemplate{Template: tmpl}, nil
}

func (p *LinkTemplate) Link(m models.Meeting) string {
	return strings.ReplaceAll(p.Template, "{id}", m.ID)
}

func (p *LinkTemplate) CreateEvent(ctx context.Context, m models.Meeting) (Event, error) {
	return Event{ExternalEventID: "link-" + m.ID, JoinLink: p.Link(m)}, nil
}
