package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Window is a daily working-hours range, in minutes after local midnight.
type Window struct {
	Start int
	End   int
}

// ParseWindow parses "09:00-17:00".
func ParseWindow(s string) (Window, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid working hours %q", s)
	}
	start, err := parseHHMM(from)
	if err != nil {
		return Window{}, err
	}
	end, err := parseHHMM(to)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: start, End: end}
	return w, w.validate()
}

func (w Window) validate() error {
	if w.Start < 0 || w.End > 24*60 || w.End <= w.Start {
		return fmt.Errorf("working hours end must be after start")
	}
	if w.Start%ClaimMinutes != 0 || w.End%ClaimMinutes != 0 {
		return fmt.Errorf("working hours must fall on a %d minute boundary", ClaimMinutes)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return 24 * 60, nil
	}
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time string: %s", s)
	}
	return tt.Hour()*60 + tt.Minute(), nil
}

// Individual is a single bookable person with a recurring weekly schedule in their
// business timezone.
type Individual struct {
	ID       string
	Name     string
	Email    string
	Location *time.Location
	Hours    map[time.Weekday]Window
}

// Attendee is one of the options a lead can choose to meet with. Members lists the
// individuals that must all be free.
type Attendee struct {
	Type    string   `json:"type"`
	Label   string   `json:"label"`
	Members []string `json:"members"`
}

// Directory is the closed table of attendee options.
type Directory struct {
	individuals map[string]Individual
	attendees   map[string]Attendee
	order       []string
}

func NewDirectory(individuals []Individual, attendees []Attendee) (*Directory, error) {
	d := &Directory{
		individuals: make(map[string]Individual, len(individuals)),
		attendees:   make(map[string]Attendee, len(attendees)),
	}
	for _, ind := range individuals {
		if ind.ID == "" {
			return nil, fmt.Errorf("individual id required")
		}
		if ind.Location == nil {
			return nil, fmt.Errorf("individual %s: timezone required", ind.ID)
		}
		for day, w := range ind.Hours {
			if err := w.validate(); err != nil {
				return nil, fmt.Errorf("individual %s %s: %w", ind.ID, day, err)
			}
		}
		if _, dup := d.individuals[ind.ID]; dup {
			return nil, fmt.Errorf("individual %s defined twice", ind.ID)
		}
		d.individuals[ind.ID] = ind
	}
	for _, a := range attendees {
		if a.Type == "" || len(a.Members) == 0 {
			return nil, fmt.Errorf("attendee %q: type and members required", a.Type)
		}
		if _, dup := d.attendees[a.Type]; dup {
			return nil, fmt.Errorf("attendee %q defined twice", a.Type)
		}
		seen := make(map[string]bool, len(a.Members))
		for _, m := range a.Members {
			if _, ok := d.individuals[m]; !ok {
				return nil, fmt.Errorf("attendee %q: unknown member %q", a.Type, m)
			}
			// A repeated member would claim the same bucket twice in one reservation.
			if seen[m] {
				return nil, fmt.Errorf("attendee %q: member %q listed twice", a.Type, m)
			}
			seen[m] = true
		}
		d.attendees[a.Type] = a
		d.order = append(d.order, a.Type)
	}
	return d, nil
}

func (d *Directory) Lookup(attendeeType string) (Attendee, error) {
	a, ok := d.attendees[attendeeType]
	if !ok {
		return Attendee{}, fmt.Errorf("%w: %q", ErrInvalidAttendee, attendeeType)
	}
	return a, nil
}

// Members expands an attendee option to its individuals, in declaration order.
func (d *Directory) Members(a Attendee) []Individual {
	out := make([]Individual, 0, len(a.Members))
	for _, id := range a.Members {
		out = append(out, d.individuals[id])
	}
	return out
}

// Attendees returns the options in declaration order.
func (d *Directory) Attendees() []Attendee {
	out := make([]Attendee, 0, len(d.order))
	for _, t := range d.order {
		out = append(out, d.attendees[t])
	}
	return out
}

// DefaultDirectory is used when no config file defines attendees.
func DefaultDirectory() *Directory {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	weekdays := func() map[time.Weekday]Window {
		h := map[time.Weekday]Window{}
		for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
			h[day] = Window{Start: 9 * 60, End: 17 * 60}
		}
		return h
	}
	d, err := NewDirectory(
		[]Individual{
			{ID: "founder", Name: "Founder", Location: loc, Hours: weekdays()},
			{ID: "solutions", Name: "Solutions Engineer", Location: loc, Hours: weekdays()},
		},
		[]Attendee{
			{Type: "founder", Label: "Meet the founder", Members: []string{"founder"}},
			{Type: "solutions", Label: "Meet a solutions engineer", Members: []string{"solutions"}},
			{Type: "both", Label: "Meet both", Members: []string{"founder", "solutions"}},
		},
	)
	if err != nil {
		panic(err)
	}
	return d
}

// SortedIDs returns the member ids of a in a stable order, for storage.
func SortedIDs(a Attendee) []string {
	ids := append([]string(nil), a.Members...)
	sort.Strings(ids)
	return ids
}
