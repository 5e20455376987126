package core

import (
	"time"

	"github.com/google/uuid"
)

// Ports for the collaborators the store consumes.
type (
	// IDGenerator produces unique transaction and goal identifiers.
	IDGenerator interface {
		NewID() string
	}

	// Clock is the wall-clock and calendar source.
	Clock interface {
		Now() time.Time
	}
)

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant. Useful in tests and replays.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
