package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"booking-service/internal/client"
	"booking-service/internal/confirmation"
	"booking-service/internal/flow"
	"booking-service/internal/models"
)

func bookCommand() *cli.Command {
	return &cli.Command{
		Name:  "book",
		Usage: "Book a meeting against a running API, the way the website booking dialog does.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", Usage: "API base URL."},
			&cli.StringFlag{Name: "attendee", Required: true, Usage: "Attendee type to meet."},
			&cli.StringFlag{Name: "date", Usage: "Date to book (YYYY-MM-DD). Defaults to today."},
			&cli.StringFlag{Name: "timezone", Usage: "IANA timezone. Defaults to $TZ or the local zone."},
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "phone"},
			&cli.StringFlag{Name: "slot", Usage: "Slot start (RFC3339). Defaults to the first available slot."},
			&cli.StringFlag{Name: "ics", Usage: "Write the calendar file to this path."},
		},
		Action: func(c *cli.Context) error {
			var tz flow.TimezoneResolver = flow.EnvTimezone{}
			if z := c.String("timezone"); z != "" {
				tz = flow.FixedTimezone(z)
			}
			api := client.New(c.String("server"), nil)
			ctrl := flow.NewController(api, flow.ControllerOptions{
				Timezone: tz,
				Lead: models.Lead{
					Name:  c.String("name"),
					Email: c.String("email"),
					Phone: c.String("phone"),
				},
			})

			ctx := c.Context
			if err := ctrl.ChooseAttendee(ctx, c.String("attendee")); err != nil {
				return err
			}
			if d := c.String("date"); d != "" {
				date, err := models.ParseDate(d)
				if err != nil {
					return err
				}
				if err := ctrl.ChangeDate(ctx, date); err != nil {
					return err
				}
			}

			// A conflict sends the flow back to slot selection with fresh
			// availability; try the next free slot a few times.
			for attempt := 0; attempt < 3; attempt++ {
				sel, ok := ctrl.State().(flow.SelectingSlot)
				if !ok {
					break
				}
				if sel.Err != nil {
					return sel.Err
				}
				if sel.Notice != "" {
					fmt.Println(sel.Notice)
				}
				slot, err := pickSlot(sel.Slots, c.String("slot"))
				if err != nil {
					return err
				}
				fmt.Printf("Booking %s (%s)\n", slot.StartTime.Format(time.RFC1123), sel.Timezone)
				if err := ctrl.ChooseSlot(ctx, slot); err != nil {
					return err
				}
			}

			done, ok := ctrl.State().(flow.Confirmed)
			if !ok {
				if sel, isSel := ctrl.State().(flow.SelectingSlot); isSel && sel.Err != nil {
					return sel.Err
				}
				return fmt.Errorf("booking did not complete, flow is in %s", ctrl.State().Name())
			}

			loc, _ := time.LoadLocation(done.Booking.Timezone)
			fmt.Print(confirmation.Render(done.Booking, loc))

			if path := c.String("ics"); path != "" {
				data, err := confirmation.ICS(done.Booking.Meeting)
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Printf("Calendar file written to %s\n", path)
			}
			return nil
		},
	}
}

func pickSlot(slots []models.TimeSlot, want string) (models.TimeSlot, error) {
	if want != "" {
		t, err := time.Parse(time.RFC3339, want)
		if err != nil {
			return models.TimeSlot{}, fmt.Errorf("invalid --slot: %w", err)
		}
		for _, s := range slots {
			if s.StartTime.Equal(t) {
				if !s.Available {
					return models.TimeSlot{}, flow.ErrSlotUnavailable
				}
				return s, nil
			}
		}
		return models.TimeSlot{}, fmt.Errorf("no slot starts at %s", want)
	}
	for _, s := range slots {
		if s.Available {
			return s, nil
		}
	}
	return models.TimeSlot{}, fmt.Errorf("no available slots on this date")
}
