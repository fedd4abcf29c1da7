package repository

import (
	"context"
	"sync"

	"github.com/okian/bathlog/internal/domain/model"
)

// MemoryStore is an in-process Store, used by tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.Event
}

// NewMemoryStore creates a store seeded with events.
func NewMemoryStore(events ...model.Event) *MemoryStore {
	normalized, _ := Normalize(events)
	return &MemoryStore{events: normalized}
}

func (s *MemoryStore) Load(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Event{}, s.events...), nil
}

func (s *MemoryStore) Save(ctx context.Context, events []model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, _ := Normalize(events)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = normalized
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, e model.Event) ([]model.Event, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if contains(s.events, e.ID) {
		return nil, ErrDuplicateID
	}
	s.events = insertSorted(s.events, e)
	return append([]model.Event{}, s.events...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i:i], s.events[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = []model.Event{}
	return nil
}
