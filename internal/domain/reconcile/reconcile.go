// Package reconcile promotes events queued by the home screen widget into the
// main event store, at most once per queued id.
package reconcile

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/bathlog/internal/domain/dedupe"
	"github.com/okian/bathlog/internal/domain/model"
)

// EventStore is the main store as seen by the reconciler.
type EventStore interface {
	// Load returns all events sorted descending by timestamp.
	Load(ctx context.Context) ([]model.Event, error)
	// Save replaces the whole list.
	Save(ctx context.Context, events []model.Event) error
}

// PendingQueue is the external queue written by the widget.
type PendingQueue interface {
	Queued(ctx context.Context) ([]model.Event, error)
	// Remove drops the entries with the given ids. Entries added after the
	// matching Queued call must survive.
	Remove(ctx context.Context, ids []string) error
}

// Outcome names the branch a merge took.
type Outcome string

const (
	// OutcomeNoop means the queue was empty and nothing was touched.
	OutcomeNoop Outcome = "noop"
	// OutcomeCleared means every queued id was already stored; those entries
	// were removed from the queue.
	OutcomeCleared Outcome = "cleared"
	// OutcomeMerged means new events were saved and the merged entries were
	// removed from the queue.
	OutcomeMerged Outcome = "merged"
)

// Result is the outcome of one merge.
type Result struct {
	// Events is the list that is now persisted (base when nothing was saved).
	Events   []model.Event
	Outcome  Outcome
	Promoted int

	// PromotedIDs lists the queued ids that were new to the store.
	PromotedIDs []string
}

// Plan computes the merge of queued into base without any I/O. base is
// assumed deduplicated. The returned list is sorted descending by ts, stable
// for equal timestamps with queued entries first.
func Plan(base, queued []model.Event) ([]model.Event, Outcome) {
	if len(queued) == 0 {
		return base, OutcomeNoop
	}

	d := dedupe.NewInMemoryDeduper()
	for _, e := range base {
		d.SeenAndRecord(context.Background(), e.ID)
	}
	unique := dedupe.Events(context.Background(), d, queued)
	if len(unique) == 0 {
		return base, OutcomeCleared
	}

	merged := make([]model.Event, 0, len(unique)+len(base))
	merged = append(merged, unique...)
	merged = append(merged, base...)
	SortDesc(merged)
	return merged, OutcomeMerged
}

// SortDesc orders events newest first, keeping the relative order of equal
// timestamps.
func SortDesc(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		return cmp.Compare(b.TS, a.TS)
	})
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLocker holds l for the whole load, save and clear cycle of Sync, so
// direct writers to the same store cannot interleave with a merge.
func WithLocker(l sync.Locker) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.lock = l
		}
	}
}

// Reconciler runs merges against a store and a queue. Concurrent Sync calls
// are not queued: a call arriving while one is running returns ErrSyncInFlight.
type Reconciler struct {
	store   EventStore
	queue   PendingQueue
	lock    sync.Locker
	running atomic.Bool
}

// New creates a Reconciler.
func New(store EventStore, queue PendingQueue, opts ...Option) *Reconciler {
	r := &Reconciler{store: store, queue: queue, lock: noopLocker{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Merge reconciles base with the current queue contents. An empty queue
// performs no store write and no clear. The store is saved before the queue
// is cleared, so a failure at any step leaves the store either untouched or
// fully merged and a retry promotes nothing twice. When the clear fails
// after a save, the returned Result still describes the saved list.
//
// The clear removes only the ids this call read, so a tap queued while the
// store was being saved stays pending for the next run.
func (r *Reconciler) Merge(ctx context.Context, base []model.Event) (Result, error) {
	queued, err := r.queue.Queued(ctx)
	if err != nil {
		return Result{Events: base, Outcome: OutcomeNoop}, fmt.Errorf("read queue: %w", err)
	}

	merged, outcome := Plan(base, queued)
	res := Result{Events: merged, Outcome: outcome}
	switch outcome {
	case OutcomeNoop:
		return res, nil
	case OutcomeMerged:
		res.PromotedIDs = newIDs(base, queued)
		res.Promoted = len(res.PromotedIDs)
		if err := r.store.Save(ctx, merged); err != nil {
			return Result{Events: base, Outcome: OutcomeNoop}, fmt.Errorf("save merged events: %w", err)
		}
	}

	if err := r.queue.Remove(ctx, idsOf(queued)); err != nil {
		return res, fmt.Errorf("clear queue: %w", err)
	}
	return res, nil
}

func idsOf(events []model.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

// newIDs returns the distinct ids of queued absent from base, in queue order.
func newIDs(base, queued []model.Event) []string {
	seen := make(map[string]struct{}, len(base)+len(queued))
	for _, e := range base {
		seen[e.ID] = struct{}{}
	}
	ids := make([]string, 0, len(queued))
	for _, e := range queued {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		ids = append(ids, e.ID)
	}
	return ids
}

// Sync loads the store and merges the queue into it.
func (r *Reconciler) Sync(ctx context.Context) (Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Result{}, ErrSyncInFlight
	}
	defer r.running.Store(false)

	r.lock.Lock()
	defer r.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	base, err := r.store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load events: %w", err)
	}
	return r.Merge(ctx, base)
}

// Running reports whether a Sync is in flight.
func (r *Reconciler) Running() bool {
	return r.running.Load()
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}
