package mapper

import "time"

// Clock is a pluggable time source. New reads the default system clock
// once, to timestamp the root measurement; no other mapper operation
// reads the clock, and readings carry their own timestamps.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
