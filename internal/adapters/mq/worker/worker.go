// Package worker runs widget queue reconciliation in the background, on a
// cron schedule and on demand.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/bathlog/internal/domain/reconcile"
	"github.com/okian/bathlog/pkg/logger"
	"github.com/okian/bathlog/pkg/metrics"
)

// Outcome labels recorded beside the reconcile outcomes.
const (
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Reconciler runs one merge of the widget queue into the store.
type Reconciler interface {
	Sync(ctx context.Context) (reconcile.Result, error)
}

// Syncer triggers reconciliation runs. Triggers that arrive while a run is
// pending are coalesced into it.
type Syncer struct {
	rec      Reconciler
	name     string
	schedule string

	cron     *cron.Cron
	triggers chan struct{}

	shutdownOnce sync.Once
	shutdown     chan struct{}
	done         chan struct{}

	logger logger.Logger
}

// NewSyncer creates a Syncer. It returns an error when the schedule does not parse.
func NewSyncer(rec Reconciler, opts ...Option) (*Syncer, error) {
	s := &Syncer{
		rec:      rec,
		name:     "sync-worker",
		triggers: make(chan struct{}, 1),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named(s.name)
	}

	if s.schedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.schedule, s.Trigger); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, s.schedule, err)
		}
	}
	return s, nil
}

// Schedule returns the cron spec, empty when only on-demand runs happen.
func (s *Syncer) Schedule() string { return s.schedule }

// Trigger asks for a run without waiting for it.
func (s *Syncer) Trigger() {
	select {
	case s.triggers <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is canceled or Shutdown is called.
func (s *Syncer) Run(ctx context.Context) {
	defer close(s.done)

	if s.cron != nil {
		s.cron.Start()
		defer func() { <-s.cron.Stop().Done() }()
		s.logger.Info(ctx, "sync schedule started", logger.String("schedule", s.schedule))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-s.triggers:
			// Errors are logged by RunNow; the next trigger retries.
			_, _ = s.RunNow(ctx)
		}
	}
}

// RunNow performs one reconciliation synchronously. A run overlapping
// another returns reconcile.ErrSyncInFlight.
func (s *Syncer) RunNow(ctx context.Context) (reconcile.Result, error) {
	start := time.Now()
	res, err := s.rec.Sync(ctx)
	metrics.RecordSyncLatency(float64(time.Since(start).Microseconds()) / 1000)

	switch {
	case errors.Is(err, reconcile.ErrSyncInFlight):
		metrics.RecordSyncRun(OutcomeSkipped)
		s.logger.Debug(ctx, "sync skipped: another run is in flight")
		return res, err
	case err != nil:
		metrics.RecordSyncRun(OutcomeFailed)
		metrics.RecordErrorByComponent("worker", "sync")
		s.logger.Error(ctx, "sync failed", logger.Error(err))
		return res, err
	}

	metrics.RecordSyncRun(string(res.Outcome))
	metrics.RecordSyncPromoted(res.Promoted)
	if res.Outcome != reconcile.OutcomeNoop {
		s.logger.Info(ctx, "widget queue reconciled",
			logger.String("outcome", string(res.Outcome)),
			logger.Int("promoted", res.Promoted),
			logger.Int("total", len(res.Events)),
		)
	}
	return res, nil
}

// Shutdown stops the loop and waits for it to exit.
func (s *Syncer) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() { close(s.shutdown) })

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
