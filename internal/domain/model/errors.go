package model

import "errors"

// Validation errors for events and filters.
var (
	ErrMissingID        = errors.New("event id is required")
	ErrInvalidType      = errors.New("event type must be pee or poop")
	ErrInvalidTimestamp = errors.New("event timestamp must be positive")
	ErrInvalidRange     = errors.New("range must be one of today, week, month, year, all")
	ErrInvalidFilter    = errors.New("type filter must be one of all, pee, poop")
)
