// Package config defines process configuration and how it is loaded.
//
// Conventions:
// - New returns the defaults; Load layers a YAML file and env vars on top.
// - Validation errors wrap ErrInvalidConfig; file and env failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventsPath is the JSON file holding the event list.
	EventsPath string `koanf:"events_path"`

	// QueuePath is the JSON file the widget appends taps to.
	QueuePath string `koanf:"queue_path"`

	// SyncSchedule is a cron spec for background queue merges. Empty disables it.
	SyncSchedule string `koanf:"sync_schedule"`

	// Timezone names the calendar used for ranges, e.g. "Europe/Berlin" or "Local".
	Timezone string `koanf:"timezone"`

	// TimeFormat is the export clock: 24h or 12h.
	TimeFormat string `koanf:"time_format"`

	// IconPee and IconPoop replace the plain text export icons. Empty keeps
	// the built-in emoji.
	IconPee  string `koanf:"icon_pee"`
	IconPoop string `koanf:"icon_poop"`

	// PageSize is the default list page size; MaxPageSize caps ?limit.
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`

	// WidgetDebounceMS is the minimum gap between accepted widget taps.
	WidgetDebounceMS int `koanf:"widget_debounce_ms"`

	// StreamBuffer is the per subscriber buffer of the change feed.
	StreamBuffer int `koanf:"stream_buffer"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		EventsPath:       "data/events.json",
		QueuePath:        "data/widget_queue.json",
		SyncSchedule:     "@every 30s",
		Timezone:         "Local",
		TimeFormat:       "24h",
		PageSize:         10,
		MaxPageSize:      500,
		WidgetDebounceMS: 350,
		StreamBuffer:     16,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// WidgetDebounce returns WidgetDebounceMS as a duration.
func (c *Config) WidgetDebounce() time.Duration {
	return time.Duration(c.WidgetDebounceMS) * time.Millisecond
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventsPath == "":
		return fmt.Errorf("%w: events_path must not be empty", ErrInvalidConfig)
	case c.QueuePath == "":
		return fmt.Errorf("%w: queue_path must not be empty", ErrInvalidConfig)
	case c.PageSize < 1:
		return fmt.Errorf("%w: page_size must be at least 1", ErrInvalidConfig)
	case c.MaxPageSize < c.PageSize:
		return fmt.Errorf("%w: max_page_size %d is below page_size %d", ErrInvalidConfig, c.MaxPageSize, c.PageSize)
	case c.WidgetDebounceMS < 0:
		return fmt.Errorf("%w: widget_debounce_ms must not be negative", ErrInvalidConfig)
	case c.StreamBuffer < 1:
		return fmt.Errorf("%w: stream_buffer must be at least 1", ErrInvalidConfig)
	}
	switch strings.ToLower(c.TimeFormat) {
	case "24h", "12h":
	default:
		return fmt.Errorf("%w: time_format must be 24h or 12h, got %q", ErrInvalidConfig, c.TimeFormat)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
