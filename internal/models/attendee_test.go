package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{in: "09:00-17:00", want: Window{Start: 540, End: 1020}},
		{in: " 08:30 - 12:15 ", want: Window{Start: 510, End: 735}},
		{in: "00:00-24:00", want: Window{Start: 0, End: 1440}},
		{in: "17:00-09:00", wantErr: true},
		{in: "09:10-17:00", wantErr: true},
		{in: "nine-five", wantErr: true},
		{in: "09:00", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseWindow(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseWindow(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWindow(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWindow(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestDirectoryLookup(t *testing.T) {
	d := DefaultDirectory()

	a, err := d.Lookup("both")
	if err != nil {
		t.Fatalf("Lookup(both): %v", err)
	}
	if len(d.Members(a)) != 2 {
		t.Errorf("expected 2 members for both, got %d", len(d.Members(a)))
	}
	if _, err := d.Lookup("ceo-and-friends"); !errors.Is(err, ErrInvalidAttendee) {
		t.Errorf("expected ErrInvalidAttendee, got %v", err)
	}
	if got := len(d.Attendees()); got != 3 {
		t.Errorf("expected 3 attendee options, got %d", got)
	}
}

func TestNewDirectoryValidates(t *testing.T) {
	ind := Individual{ID: "a", Location: time.UTC, Hours: map[time.Weekday]Window{time.Monday: {Start: 540, End: 1020}}}

	if _, err := NewDirectory([]Individual{ind}, []Attendee{{Type: "x", Members: []string{"missing"}}}); err == nil {
		t.Error("expected error for unknown member")
	}
	if _, err := NewDirectory([]Individual{ind}, []Attendee{{Type: "a", Members: []string{"a"}}, {Type: "a", Members: []string{"a"}}}); err == nil {
		t.Error("expected error for duplicate attendee type")
	}
	if _, err := NewDirectory([]Individual{ind}, []Attendee{{Type: "pair", Members: []string{"a", "a"}}}); err == nil {
		t.Error("expected error for a member listed twice")
	}
	if _, err := NewDirectory([]Individual{ind, ind}, nil); err == nil {
		t.Error("expected error for duplicate individual")
	}
	noZone := ind
	noZone.Location = nil
	if _, err := NewDirectory([]Individual{noZone}, nil); err == nil {
		t.Error("expected error for missing timezone")
	}
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	if err != nil {
		t.Fatal(err)
	}
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Errorf("leap day: got %s", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("month rollover: got %s", got)
	}
	if d.Weekday() != time.Wednesday {
		t.Errorf("expected Wednesday, got %s", d.Weekday())
	}
	if _, err := ParseDate("2024-13-01"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
