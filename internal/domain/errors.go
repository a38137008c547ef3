package domain

import "errors"

var (
	ErrGolferNotFound    = errors.New("golfer not found")
	ErrTeeTimeNotFound   = errors.New("tee time not found")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid or expired credential")
	ErrJobsUnavailable   = errors.New("job system unavailable")
)
