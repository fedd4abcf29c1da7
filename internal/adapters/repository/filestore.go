package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/pkg/logger"
	"github.com/okian/bathlog/pkg/metrics"
)

// FileStore keeps the event list as a JSON array in a single file. Writes go
// to a temp file in the same directory and are renamed into place.
type FileStore struct {
	mu       sync.Mutex
	path     string
	filePerm fs.FileMode
	dirPerm  fs.FileMode
	log      logger.Logger
}

// NewFileStore creates a store at path. The file is created on first write.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:     path,
		filePerm: defaultFilePerm,
		dirPerm:  defaultDirPerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("store")
	}
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) Save(ctx context.Context, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	normalized, _ := Normalize(events)
	return s.save(ctx, normalized)
}

func (s *FileStore) Append(ctx context.Context, e model.Event) ([]model.Event, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if contains(events, e.ID) {
		return nil, ErrDuplicateID
	}
	next := insertSorted(events, e)
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load(ctx)
	if err != nil {
		return err
	}
	next := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.ID != id {
			next = append(next, e)
		}
	}
	if len(next) == len(events) {
		return ErrNotFound
	}
	return s.save(ctx, next)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []model.Event{})
}

// load must be called with s.mu held.
func (s *FileStore) load(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreLoadLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Event{}, nil
	}
	if err != nil {
		metrics.RecordErrorByComponent("store", "read")
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return []model.Event{}, nil
	}

	var stored []model.Event
	if err := json.Unmarshal(raw, &stored); err != nil {
		metrics.RecordErrorByComponent("store", "corrupt")
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
	}
	events, dropped := Normalize(stored)
	if dropped > 0 {
		s.log.Warn(ctx, "dropped invalid stored events", logger.Int("dropped", dropped))
	}
	return events, nil
}

// save must be called with s.mu held; events must already be normalized.
func (s *FileStore) save(ctx context.Context, events []model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	if events == nil {
		events = []model.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := writeFileAtomic(s.path, data, s.filePerm, s.dirPerm); err != nil {
		metrics.RecordErrorByComponent("store", "write")
		return err
	}

	metrics.RecordStoreSaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateStoreEvents(len(events))
	s.log.Debug(ctx, "saved events", logger.Int("count", len(events)))
	return nil
}

// writeFileAtomic writes data next to path and renames it over path.
func writeFileAtomic(path string, data []byte, filePerm, dirPerm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
