package usecase

import "time"

// Clock returns the current time. Services default to UTC wall time and
// tests replace it through WithClock.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
