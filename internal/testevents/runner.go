// Package testevents drives a running bathlog server with generated
// traffic and checks that nothing was lost.
package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/bathlog/pkg/logger"
)

const directoryPermission = 0o750

// Run executes a complete traffic run: health check, baseline, event
// submission, widget taps, sync, and verification.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	config = config.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(strings.TrimRight(config.BaseURL, "/"), config.Timeout)

	logger.Get().Info(ctx, "starting bathlog traffic run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("widgetTaps", config.WidgetTaps),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	before, err := fetchStats(ctx, client)
	if err != nil {
		return stats, fmt.Errorf("baseline stats failed: %w", err)
	}
	stats.StoredBefore = before.StoredEvents
	if before.QueuedEvents > 0 {
		// Leftover taps would be promoted by our sync and skew the count.
		if err := runSync(ctx, client, &Stats{}); err != nil {
			return stats, fmt.Errorf("draining widget queue failed: %w", err)
		}
		if before, err = fetchStats(ctx, client); err != nil {
			return stats, fmt.Errorf("baseline stats failed: %w", err)
		}
		stats.StoredBefore = before.StoredEvents
	}

	events := generateEvents(ctx, config, stats.StartTime, stats)
	submitEvents(ctx, client, config, events, stats)

	if err := tapWidget(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("widget taps failed: %w", err)
	}
	if err := runSync(ctx, client, stats); err != nil {
		return stats, fmt.Errorf("sync failed: %w", err)
	}

	if err := verifyResults(ctx, client, stats); err != nil {
		return stats, err
	}

	if config.OutputFile != "" {
		if err := saveEventsToFile(config.OutputFile, events); err != nil {
			logger.Get().Warn(ctx, "failed to save events to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	status, err := client.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	// The service answers with Prometheus metrics; any 200 is healthy.
	if status != http.StatusOK {
		return fmt.Errorf("status %d", status)
	}
	return nil
}

// saveEventsToFile writes the generated requests as a JSON array.
func saveEventsToFile(filename string, events []EventRequest) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	return os.WriteFile(filename, append(data, '\n'), 0o600)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSuccessful", stats.EventsSuccessful),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("tapsQueued", stats.TapsQueued),
		logger.Int("tapsDebounced", stats.TapsDebounced),
		logger.Int("promoted", stats.Promoted),
		logger.Int("storedAfter", stats.StoredAfter),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
