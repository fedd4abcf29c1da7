// Package repository persists the main event list.
package repository

import (
	"context"

	"github.com/okian/bathlog/internal/domain/dedupe"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/reconcile"
)

// Store provides read/write access to the event list. Every list it returns
// holds unique ids sorted descending by timestamp.
type Store interface {
	// Load returns all valid events.
	Load(ctx context.Context) ([]model.Event, error)

	// Save replaces the whole list atomically. The list is normalized first.
	Save(ctx context.Context, events []model.Event) error

	// Append adds one event and returns the new list.
	// Returns ErrDuplicateID if the id is already stored.
	Append(ctx context.Context, e model.Event) ([]model.Event, error)

	// Delete removes the event with id.
	// Returns ErrNotFound if it is not stored.
	Delete(ctx context.Context, id string) error

	// Clear stores an empty list.
	Clear(ctx context.Context) error
}

// Normalize drops invalid rows and duplicate ids (first occurrence wins) and
// sorts newest first. It returns the survivors and the number dropped.
func Normalize(events []model.Event) ([]model.Event, int) {
	valid := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Validate() == nil {
			valid = append(valid, e)
		}
	}
	out := dedupe.Unique(valid)
	reconcile.SortDesc(out)
	return out, len(events) - len(out)
}

func insertSorted(events []model.Event, e model.Event) []model.Event {
	out := make([]model.Event, 0, len(events)+1)
	out = append(out, e)
	out = append(out, events...)
	reconcile.SortDesc(out)
	return out
}

func contains(events []model.Event, id string) bool {
	for _, e := range events {
		if e.ID == id {
			return true
		}
	}
	return false
}
