package stats

import "errors"

var (
	// ErrInvalidPeriod is returned for a report period other than today, week or month
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrDayNotFound is returned when a day id is not in the database
	ErrDayNotFound = errors.New("day not found")
)
