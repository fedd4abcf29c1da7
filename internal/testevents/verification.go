package testevents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/bathlog/pkg/logger"
)

// ErrVerification is returned when the server state does not match what the
// run submitted.
var ErrVerification = errors.New("verification failed")

const syncRetryDelay = 200 * time.Millisecond

type statsResponse struct {
	StoredEvents int `json:"stored_events"`
	QueuedEvents int `json:"queued_events"`
}

type syncResponse struct {
	Outcome  string `json:"outcome"`
	Promoted int    `json:"promoted"`
	Total    int    `json:"total"`
}

type pageResponse struct {
	Total int `json:"total"`
}

func fetchStats(ctx context.Context, client *HTTPClient) (statsResponse, error) {
	var st statsResponse
	status, err := client.do(ctx, http.MethodGet, "/stats", nil, &st)
	if err != nil {
		return st, err
	}
	if status != http.StatusOK {
		return st, fmt.Errorf("stats returned status %d", status)
	}
	return st, nil
}

// runSync asks the server to merge the widget queue, retrying once when a
// scheduled run holds the guard.
func runSync(ctx context.Context, client *HTTPClient, stats *Stats) error {
	for attempt := 0; attempt < 2; attempt++ {
		var res syncResponse
		status, err := client.do(ctx, http.MethodPost, "/sync", nil, &res)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusOK:
			stats.Promoted = res.Promoted
			logger.Get().Info(ctx, "sync finished",
				logger.String("outcome", res.Outcome),
				logger.Int("promoted", res.Promoted))
			return nil
		case http.StatusConflict:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(syncRetryDelay):
			}
		default:
			return fmt.Errorf("sync returned status %d", status)
		}
	}
	return fmt.Errorf("sync still in flight after retry")
}

// verifyResults checks that every accepted event and queued tap is stored,
// and that the list endpoint agrees with the stats endpoint. A scheduled
// sync may have promoted taps before ours, so the tap count is compared
// with the store rather than with the sync response.
func verifyResults(ctx context.Context, client *HTTPClient, stats *Stats) error {
	after, err := fetchStats(ctx, client)
	if err != nil {
		return err
	}
	stats.StoredAfter = after.StoredEvents

	want := stats.StoredBefore + stats.EventsSuccessful + stats.TapsQueued
	if after.StoredEvents != want {
		return fmt.Errorf("%w: stored %d events, want %d (before %d + logged %d + taps %d)",
			ErrVerification, after.StoredEvents, want, stats.StoredBefore, stats.EventsSuccessful, stats.TapsQueued)
	}
	if after.QueuedEvents != 0 {
		return fmt.Errorf("%w: %d taps still queued after sync", ErrVerification, after.QueuedEvents)
	}

	var page pageResponse
	if _, err := client.do(ctx, http.MethodGet, "/events?range=all&limit=1", nil, &page); err != nil {
		return err
	}
	if page.Total != after.StoredEvents {
		return fmt.Errorf("%w: list total %d, stats %d", ErrVerification, page.Total, after.StoredEvents)
	}

	logger.Get().Info(ctx, "verification passed", logger.Int("stored", after.StoredEvents))
	return nil
}
