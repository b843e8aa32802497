package models

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T. Used by tests and dry runs.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
