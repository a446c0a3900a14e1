package breaks

import "errors"

var (
	// ErrBadStateHeader is returned when the state file does not start with the expected tag
	ErrBadStateHeader = errors.New("bad state file header")

	// ErrUnsupportedStateVersion is returned for state files written by an unknown version
	ErrUnsupportedStateVersion = errors.New("unsupported state file version")
)
