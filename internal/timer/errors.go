package timer

import "errors"

var (
	// ErrMalformedState is returned when a persisted timer state cannot be parsed
	ErrMalformedState = errors.New("malformed timer state")

	// ErrInvalidPredicate is returned when a daily reset predicate cannot be parsed
	ErrInvalidPredicate = errors.New("invalid reset predicate")
)
