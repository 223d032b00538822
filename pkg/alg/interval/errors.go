package interval

import "errors"

// Sentinel errors.
var (
	// ErrInvalidArgument is returned when an interval is absent, malformed,
	// or a required collection argument is nil.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCorrupted is returned by Check when a structural invariant does not hold.
	ErrCorrupted = errors.New("interval tree corrupted")
)
