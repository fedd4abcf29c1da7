package queue

import (
	"context"
	"slices"
	"sync"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/pkg/metrics"
)

// InMemoryQueue implements Queue in process memory.
type InMemoryQueue struct {
	*tapper
	mu     sync.RWMutex
	events []model.Event
}

// NewInMemoryQueue creates an empty in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{tapper: newTapper(newOptions(opts))}
	metrics.UpdateQueueLength(0)
	return q
}

// Append records a widget tap.
func (q *InMemoryQueue) Append(ctx context.Context, t model.EventType) (model.Event, error) {
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}
	e, err := q.tap(t)
	if err != nil {
		return model.Event{}, err
	}
	q.Push(e)
	return e, nil
}

// Push adds e as is, bypassing id generation and debounce. Invalid events
// are ignored, matching what a read of the widget file would do.
func (q *InMemoryQueue) Push(events ...model.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range events {
		if e.Validate() == nil {
			q.events = append(q.events, e)
			metrics.RecordQueueAppend()
		}
	}
	metrics.UpdateQueueLength(len(q.events))
}

// Queued returns a copy of the pending events.
func (q *InMemoryQueue) Queued(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]model.Event{}, q.events...), nil
}

// Remove drops the pending events with the given ids.
func (q *InMemoryQueue) Remove(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	drop := idSet(ids)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = slices.DeleteFunc(q.events, func(e model.Event) bool {
		_, gone := drop[e.ID]
		return gone
	})
	metrics.UpdateQueueLength(len(q.events))
	return nil
}

// Len returns the number of pending events.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.events)
}
