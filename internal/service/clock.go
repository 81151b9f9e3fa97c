package service

import "time"

// Clock supplies the current instant and today's calendar date. Services
// take a Clock so tests can pin time; production wiring uses SystemClock.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
