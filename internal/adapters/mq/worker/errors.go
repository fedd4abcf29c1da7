package worker

import "errors"

// ErrInvalidSchedule is returned by NewSyncer for a malformed cron spec.
var ErrInvalidSchedule = errors.New("invalid sync schedule")
