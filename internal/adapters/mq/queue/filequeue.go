package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/pkg/logger"
	"github.com/okian/bathlog/pkg/metrics"
)

// FileQueue keeps the queue in a JSON file that the widget process also
// appends to.
type FileQueue struct {
	*tapper
	mu   sync.Mutex
	path string
	log  logger.Logger
}

// NewFileQueue creates a queue backed by path. A missing file is an empty queue.
func NewFileQueue(path string, opts ...Option) *FileQueue {
	o := newOptions(opts)
	q := &FileQueue{tapper: newTapper(o), path: path, log: o.log}
	if q.log == nil {
		q.log = logger.Get().Named("widget-queue")
	}
	return q
}

// Path returns the backing file path.
func (q *FileQueue) Path() string { return q.path }

// Append records a widget tap. An unreadable queue file is replaced by a
// list holding only the new event, as the widget itself does.
func (q *FileQueue) Append(ctx context.Context, t model.EventType) (model.Event, error) {
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}
	e, err := q.tap(t)
	if err != nil {
		return model.Event{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	raw, err := q.readRaw()
	if err != nil {
		return model.Event{}, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if len(raw) > 0 {
			q.log.Warn(ctx, "replacing unreadable widget queue", logger.Error(err))
		}
		items = nil
	}
	entry, err := json.Marshal(e)
	if err != nil {
		return model.Event{}, fmt.Errorf("encode queued event: %w", err)
	}
	items = append(items, entry)
	if err := q.write(items); err != nil {
		return model.Event{}, err
	}

	metrics.RecordQueueAppend()
	metrics.UpdateQueueLength(len(items))
	q.log.Debug(ctx, "queued widget tap", logger.String("id", e.ID), logger.String("type", string(e.Type)))
	return e, nil
}

// Queued returns the valid pending events.
func (q *FileQueue) Queued(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	raw, err := q.readRaw()
	if err != nil {
		return nil, err
	}
	events, skipped := Decode(raw)
	if skipped > 0 {
		metrics.RecordQueueInvalidEntries(skipped)
		q.log.Warn(ctx, "skipped invalid widget queue entries", logger.Int("skipped", skipped))
	}
	metrics.UpdateQueueLength(len(events))
	return events, nil
}

// Remove rewrites the file without the given ids. Entries the widget wrote
// after the ids were read are kept as written. A file that is not a JSON
// array is reset to an empty one.
func (q *FileQueue) Remove(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	raw, err := q.readRaw()
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = nil
	}
	drop := idSet(ids)
	kept := items[:0]
	for _, item := range items {
		var v any
		if json.Unmarshal(item, &v) != nil {
			continue
		}
		e, ok := decodeEntry(v)
		if !ok {
			continue
		}
		if _, gone := drop[e.ID]; gone {
			continue
		}
		kept = append(kept, item)
	}
	if len(kept) == 0 {
		kept = nil
	}
	if err := q.write(kept); err != nil {
		return err
	}
	metrics.UpdateQueueLength(len(kept))
	return nil
}

// Len returns the number of valid pending events, or 0 if the file cannot be read.
func (q *FileQueue) Len(ctx context.Context) int {
	events, err := q.Queued(ctx)
	if err != nil {
		return 0
	}
	return len(events)
}

func (q *FileQueue) readRaw() ([]byte, error) {
	raw, err := os.ReadFile(q.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordErrorByComponent("queue", "read")
		return nil, fmt.Errorf("read %s: %w", q.path, err)
	}
	return raw, nil
}

func (q *FileQueue) write(items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		metrics.RecordErrorByComponent("queue", "write")
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		_ = os.Remove(tmp)
		metrics.RecordErrorByComponent("queue", "write")
		return fmt.Errorf("replace %s: %w", q.path, err)
	}
	return nil
}
