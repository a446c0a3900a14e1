package timer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayPredicate matches a fixed wall clock time every day, in the form
// "day/HH:MM".
type DayPredicate struct {
	hour     int
	minute   int
	location *time.Location
}

// ParseDayPredicate parses a predicate such as "day/4:00". An empty string
// yields a nil predicate.
func ParseDayPredicate(expr string, loc *time.Location) (*DayPredicate, error) {
	if expr == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	kind, at, ok := strings.Cut(expr, "/")
	if !ok || kind != "day" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPredicate, expr)
	}

	hh, mm, ok := strings.Cut(at, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPredicate, expr)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%w: hour in %q", ErrInvalidPredicate, expr)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("%w: minute in %q", ErrInvalidPredicate, expr)
	}

	return &DayPredicate{hour: hour, minute: minute, location: loc}, nil
}

// Next returns the first matching time strictly after the given unix time,
// as unix seconds.
func (p *DayPredicate) Next(after int64) int64 {
	from := time.Unix(after, 0).In(p.location)
	next := time.Date(from.Year(), from.Month(), from.Day(), p.hour, p.minute, 0, 0, p.location)
	if !next.After(from) {
		next = time.Date(from.Year(), from.Month(), from.Day()+1, p.hour, p.minute, 0, 0, p.location)
	}
	return next.Unix()
}

// String returns the predicate in its parsed form.
func (p *DayPredicate) String() string {
	return fmt.Sprintf("day/%d:%02d", p.hour, p.minute)
}
