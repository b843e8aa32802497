package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"

	"booking-service/internal/models"
)

func TestLinkTemplate(t *testing.T) {
	if _, err := NewLinkTemplate("https://meet.jit.si/fusiondata"); err == nil {
		t.Error("template without {id} should be rejected")
	}

	p, err := NewLinkTemplate("https://meet.jit.si/fusiondata-{id}")
	if err != nil {
		t.Fatal(err)
	}
	ev, err := p.CreateEvent(context.Background(), models.Meeting{ID: "abc"})
	if err != nil {
		t.Fatal(err)
	}
	if ev.JoinLink != "https://meet.jit.si/fusiondata-abc" || ev.ExternalEventID != "link-abc" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.CreateEvent(context.Background(), models.Meeting{ID: "abc"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDescription(t *testing.T) {
	m := models.Meeting{
		ID:            "abc",
		AttendeeType:  "both",
		AttendeeName:  "Ada Lovelace",
		AttendeeEmail: "ada@example.com",
		AttendeePhone: "+1 555 0100",
	}
	d := Description(m)
	for _, want := range []string{"Ada Lovelace <ada@example.com>", "phone +1 555 0100", "Meeting with: both.", "Reference: abc"} {
		if !strings.Contains(d, want) {
			t.Errorf("description missing %q: %q", want, d)
		}
	}
	if Summary(m) != "Fusion Data Co intro call with Ada Lovelace" {
		t.Errorf("unexpected summary %q", Summary(m))
	}
}
