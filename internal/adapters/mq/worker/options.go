package worker

import (
	"github.com/okian/bathlog/pkg/logger"
)

// Option applies a configuration option to the Syncer.
type Option func(*Syncer)

// WithName sets the worker name used for logging.
func WithName(name string) Option {
	return func(s *Syncer) {
		if name != "" {
			s.name = name
		}
	}
}

// WithSchedule sets a cron spec such as "@every 30s" or "*/5 * * * *".
// An empty schedule disables scheduled runs.
func WithSchedule(spec string) Option {
	return func(s *Syncer) {
		s.schedule = spec
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}
