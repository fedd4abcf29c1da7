package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bathlog/pkg/logger"
)

// HTTPClient wraps http.Client with a per request timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and decodes a JSON response into out when out is not
// nil. It returns the status code.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// submitEvents posts events concurrently using a worker pool.
func submitEvents(ctx context.Context, client *HTTPClient, config *Config, events []EventRequest, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting events", logger.Int("events", len(events)), logger.Int("workers", config.Workers))

	var submitted, successful, rejected, failed atomic.Int64

	eventChan := make(chan EventRequest, config.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range eventChan {
				status, err := client.do(ctx, http.MethodPost, "/events", event, nil)
				n := submitted.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
				case status == http.StatusCreated:
					successful.Add(1)
				case status == http.StatusBadRequest:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
				if config.Verbose && n%100 == 0 {
					log.Info(ctx, "progress",
						logger.Int64("submitted", n),
						logger.Int("total", len(events)),
						logger.Int64("failed", failed.Load()))
				}
			}
		}()
	}

	go func() {
		defer close(eventChan)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- event:
			}
		}
	}()
	wg.Wait()

	stats.EventsSubmitted = int(submitted.Load())
	stats.EventsSuccessful = int(successful.Load())
	stats.EventsRejected = int(rejected.Load())
	stats.EventsFailed = int(failed.Load())

	log.Info(ctx, "event submission completed",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("rejected", stats.EventsRejected),
		logger.Int("failed", stats.EventsFailed))
}

// tapWidget posts widget taps one after another, alternating types, with
// TapInterval between them.
func tapWidget(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) error {
	types := [...]string{"pee", "poop"}
	for i := 0; i < config.WidgetTaps; i++ {
		if i > 0 && config.TapInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.TapInterval):
			}
		}
		status, err := client.do(ctx, http.MethodPost, "/widget/events", map[string]string{"type": types[i%2]}, nil)
		switch {
		case err != nil:
			stats.TapsFailed++
		case status == http.StatusAccepted:
			stats.TapsQueued++
		case status == http.StatusTooManyRequests:
			stats.TapsDebounced++
		default:
			stats.TapsFailed++
		}
	}
	logger.Get().Info(ctx, "widget taps sent",
		logger.Int("queued", stats.TapsQueued),
		logger.Int("debounced", stats.TapsDebounced),
		logger.Int("failed", stats.TapsFailed))
	return nil
}
