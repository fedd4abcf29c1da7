package queue

import (
	"time"

	"github.com/okian/bathlog/pkg/logger"
)

// DefaultDebounce is the minimum gap between two accepted widget taps.
const DefaultDebounce = 350 * time.Millisecond

type options struct {
	debounce time.Duration
	now      func() time.Time
	log      logger.Logger
}

func newOptions(opts []Option) options {
	o := options{debounce: DefaultDebounce, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a queue.
type Option func(*options)

// WithDebounce sets the tap debounce window. Zero disables it.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used by the file queue.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
