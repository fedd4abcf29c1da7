package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "data", "events.json"))
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)

	events, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty non-nil list, got %v", events)
	}
}

func TestFileStore_SaveLoadNormalizes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	input := []model.Event{
		{ID: "a", Type: model.Pee, TS: 100},
		{ID: "b", Type: model.Poop, TS: 300},
		{ID: "a", Type: model.Poop, TS: 999},
		{ID: "", Type: model.Pee, TS: 50},
		{ID: "c", Type: "sneeze", TS: 50},
		{ID: "d", Type: model.Pee, TS: 0},
		{ID: "e", Type: model.Pee, TS: 200},
	}
	if err := store.Save(ctx, input); err != nil {
		t.Fatalf("save: %v", err)
	}

	events, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	wantIDs := []string{"b", "e", "a"}
	if len(events) != len(wantIDs) {
		t.Fatalf("expected %d events, got %d: %v", len(wantIDs), len(events), events)
	}
	for i, id := range wantIDs {
		if events[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, events[i].ID)
		}
	}
	if events[2].TS != 100 {
		t.Errorf("expected first occurrence of a to win, got ts %d", events[2].TS)
	}
}

func TestFileStore_NormalizesHandEditedFile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	raw := `[{"id":"x","type":"pee","ts":10},{"id":"y","type":"poop","ts":20},{"id":"z","type":"bad","ts":30}]`
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	events, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 || events[0].ID != "y" || events[1].ID != "x" {
		t.Errorf("unexpected events: %v", events)
	}
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}

	// Append must not overwrite a file it could not read.
	if _, err := store.Append(context.Background(), model.Event{ID: "n", Type: model.Pee, TS: 1}); !errors.Is(err, ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore from append, got %v", err)
	}
	raw, _ := os.ReadFile(store.Path())
	if string(raw) != "{not json" {
		t.Errorf("corrupt file was modified: %q", raw)
	}
}

func TestFileStore_AppendDeleteClear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Append(ctx, model.Event{ID: "old", Type: model.Pee, TS: 100}); err != nil {
		t.Fatalf("append: %v", err)
	}
	events, err := store.Append(ctx, model.Event{ID: "new", Type: model.Poop, TS: 200})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(events) != 2 || events[0].ID != "new" {
		t.Errorf("expected newest first, got %v", events)
	}

	if _, err := store.Append(ctx, model.Event{ID: "old", Type: model.Pee, TS: 300}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := store.Append(ctx, model.Event{ID: "bad", Type: "x", TS: 300}); !errors.Is(err, model.ErrInvalidType) {
		t.Errorf("expected ErrInvalidType, got %v", err)
	}

	if err := store.Delete(ctx, "old"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	raw, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	var stored []model.Event
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored file is not a JSON array: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("expected empty array, got %s", raw)
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, []model.Event{{ID: "a", Type: model.Pee, TS: int64(i + 1)}}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "events.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only events.json, got %v", names)
	}
}

func TestFileStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := model.Event{ID: fmt.Sprintf("evt-%d", i), Type: model.Pee, TS: int64(1000 + i)}
			if _, err := store.Append(ctx, e); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	events, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != n {
		t.Errorf("expected %d events, got %d", n, len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i-1].TS < events[i].TS {
			t.Fatalf("events not sorted descending at %d", i)
		}
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newTestStore(t)
	if _, err := store.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := store.Save(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
