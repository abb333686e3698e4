package validator

import "time"

// Clock abstracts time so polling can be tested without waiting.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock with the system clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// After returns time.After(d).
func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
