package testevents

import "time"

// Defaults for Config fields left at zero.
const (
	DefaultNumEvents   = 1000
	DefaultWidgetTaps  = 5
	DefaultDays        = 30
	DefaultTimeout     = 10 * time.Second
	DefaultTapInterval = 400 * time.Millisecond
)

// Config holds configuration for a traffic run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumEvents   int           // Events posted to /events
	WidgetTaps  int           // Taps posted to /widget/events
	Workers     int           // Concurrent submitters
	Days        int           // Generated timestamps fall in the last Days days
	Seed        int64         // Generator seed; 0 picks one from the clock
	Timeout     time.Duration // HTTP request timeout
	TapInterval time.Duration // Gap between widget taps; below the debounce taps get rejected
	OutputFile  string        // Optional JSON dump of the generated events
	Verbose     bool          // Log progress while submitting
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.NumEvents < 0 {
		out.NumEvents = 0
	}
	if out.Workers <= 0 {
		out.Workers = 4
	}
	if out.Days <= 0 {
		out.Days = DefaultDays
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.TapInterval < 0 {
		out.TapInterval = 0
	}
	return &out
}

// EventRequest is the body posted to /events.
type EventRequest struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsRejected   int
	EventsFailed     int
	TapsQueued       int
	TapsDebounced    int
	TapsFailed       int
	Promoted         int
	StoredBefore     int
	StoredAfter      int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
