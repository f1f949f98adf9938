package utils

import "time"

func NowUTC() time.Time {
	return time.Now().UTC()
}

// Clock is the time source handed to services so tests can pin "now".
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return NowUTC()
	}
	return c().UTC()
}

func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
