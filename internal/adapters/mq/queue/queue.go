// Package queue holds events tapped on the home screen widget until the sync
// worker promotes them into the main store.
//
// The queue is a JSON array of {id, type, ts} objects, the same shape the
// widget writes. Reads decode it strictly and skip entries that do not
// validate.
package queue

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/pkg/metrics"
)

// Queue is the pending widget queue.
type Queue interface {
	// Append records a tap of type t at the current time with a widget id.
	// Returns ErrDebounced when it follows the previous tap too closely.
	Append(ctx context.Context, t model.EventType) (model.Event, error)

	// Queued returns the valid pending events in queue order.
	Queued(ctx context.Context) ([]model.Event, error)

	// Remove drops the entries with the given ids, plus any entry that no
	// longer decodes. Entries appended since the ids were read are kept.
	Remove(ctx context.Context, ids []string) error

	// Len returns the number of valid pending events.
	Len(ctx context.Context) int
}

// Decode parses raw queue contents. Anything that is not a JSON array yields
// an empty list. Entries missing an id, carrying an unknown type, or without a
// positive integral timestamp are skipped; skipped is their count.
func Decode(raw []byte) (events []model.Event, skipped int) {
	events = []model.Event{}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return events, 0
	}
	for _, item := range items {
		e, ok := decodeEntry(item)
		if !ok {
			skipped++
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

func decodeEntry(item any) (model.Event, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return model.Event{}, false
	}
	id, ok := obj["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return model.Event{}, false
	}
	typ, ok := obj["type"].(string)
	if !ok || !model.EventType(typ).Valid() {
		return model.Event{}, false
	}
	ts, ok := obj["ts"].(float64)
	if !ok || ts <= 0 || ts != math.Trunc(ts) || ts >= math.MaxInt64 {
		return model.Event{}, false
	}
	return model.Event{ID: id, Type: model.EventType(typ), TS: int64(ts)}, true
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// tapper holds the debounce state shared by the queue implementations.
type tapper struct {
	mu       sync.Mutex
	debounce time.Duration
	now      func() time.Time
	lastTap  time.Time
}

func newTapper(o options) *tapper {
	return &tapper{debounce: o.debounce, now: o.now}
}

// tap returns the event for a tap at the current time, or ErrDebounced.
func (t *tapper) tap(typ model.EventType) (model.Event, error) {
	if !typ.Valid() {
		return model.Event{}, model.ErrInvalidType
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.lastTap.IsZero() && now.Sub(t.lastTap) < t.debounce {
		metrics.RecordQueueDebounced()
		return model.Event{}, ErrDebounced
	}
	t.lastTap = now
	return model.Event{ID: model.NewWidgetID(), Type: typ, TS: now.UnixMilli()}, nil
}
