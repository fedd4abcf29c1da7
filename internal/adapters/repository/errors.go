package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("event not found")
	ErrDuplicateID  = errors.New("event id already stored")
	ErrCorruptStore = errors.New("event store is not a JSON array")
	ErrBadSnapshot  = errors.New("snapshot is malformed")
)
