package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"booking-service/internal/models"
)

type individualFile struct {
	ID       string            `mapstructure:"id"`
	Name     string            `mapstructure:"name"`
	Email    string            `mapstructure:"email"`
	Timezone string            `mapstructure:"timezone"`
	Hours    map[string]string `mapstructure:"hours"`
}

type attendeeFile struct {
	Type    string   `mapstructure:"type"`
	Label   string   `mapstructure:"label"`
	Members []string `mapstructure:"members"`
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// loadDirectory builds the attendee table from the "individuals" and "attendees"
// keys, or returns the built-in table when the config defines none.
func loadDirectory(v *viper.Viper) (*models.Directory, error) {
	if !v.IsSet("attendees") {
		return models.DefaultDirectory(), nil
	}

	var inds []individualFile
	if err := v.UnmarshalKey("individuals", &inds); err != nil {
		return nil, fmt.Errorf("invalid individuals: %w", err)
	}
	var atts []attendeeFile
	if err := v.UnmarshalKey("attendees", &atts); err != nil {
		return nil, fmt.Errorf("invalid attendees: %w", err)
	}

	individuals := make([]models.Individual, 0, len(inds))
	for _, f := range inds {
		ind, err := f.toModel()
		if err != nil {
			return nil, err
		}
		individuals = append(individuals, ind)
	}
	attendees := make([]models.Attendee, 0, len(atts))
	for _, a := range atts {
		attendees = append(attendees, models.Attendee{Type: a.Type, Label: a.Label, Members: a.Members})
	}
	return models.NewDirectory(individuals, attendees)
}

func (f individualFile) toModel() (models.Individual, error) {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil || f.Timezone == "" {
		return models.Individual{}, fmt.Errorf("individual %s: invalid timezone %q", f.ID, f.Timezone)
	}
	hours := make(map[time.Weekday]models.Window, len(f.Hours))
	for day, spec := range f.Hours {
		wd, ok := weekdays[strings.ToLower(day)]
		if !ok {
			return models.Individual{}, fmt.Errorf("individual %s: unknown weekday %q", f.ID, day)
		}
		w, err := models.ParseWindow(spec)
		if err != nil {
			return models.Individual{}, fmt.Errorf("individual %s %s: %w", f.ID, day, err)
		}
		hours[wd] = w
	}
	return models.Individual{ID: f.ID, Name: f.Name, Email: f.Email, Location: loc, Hours: hours}, nil
}
