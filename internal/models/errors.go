package models

import "errors"

var (
	ErrInvalidAttendee     = errors.New("invalid attendee type")
	ErrInvalidTimezone     = errors.New("invalid timezone")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrOutsideWorkingHours = errors.New("requested time is outside working hours")
	ErrInPast              = errors.New("requested time is in the past")
	ErrSlotConflict        = errors.New("slot already booked")
	ErrNotFound            = errors.New("meeting not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNetwork             = errors.New("network error")
)

// Code returns the wire code used in API error bodies.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAttendee):
		return "InvalidAttendee"
	case errors.Is(err, ErrInvalidTimezone):
		return "InvalidTimezone"
	case errors.Is(err, ErrOutsideWorkingHours):
		return "OutsideWorkingHours"
	case errors.Is(err, ErrInPast):
		return "InPast"
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	case errors.Is(err, ErrSlotConflict):
		return "SlotConflict"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, ErrNetwork):
		return "NetworkError"
	default:
		return "Internal"
	}
}

// ErrorFromCode is the inverse of Code for the sentinel errors.
func ErrorFromCode(code string) error {
	switch code {
	case "InvalidAttendee":
		return ErrInvalidAttendee
	case "InvalidTimezone":
		return ErrInvalidTimezone
	case "OutsideWorkingHours":
		return ErrOutsideWorkingHours
	case "InPast":
		return ErrInPast
	case "InvalidRequest":
		return ErrInvalidRequest
	case "SlotConflict":
		return ErrSlotConflict
	case "NotFound":
		return ErrNotFound
	case "InvalidTransition":
		return ErrInvalidTransition
	case "NetworkError":
		return ErrNetwork
	}
	return nil
}
