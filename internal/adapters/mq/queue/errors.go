package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrDebounced = errors.New("tap ignored: too soon after the previous one")
)
