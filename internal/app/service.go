// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/bathlog/internal/adapters/mq/queue"
	"github.com/okian/bathlog/internal/adapters/repository"
	"github.com/okian/bathlog/internal/domain/changes"
	"github.com/okian/bathlog/internal/domain/export"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/reconcile"
	"github.com/okian/bathlog/internal/domain/types"
	"github.com/okian/bathlog/pkg/logger"
	"github.com/okian/bathlog/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultPageSize    = 10
	defaultMaxPageSize = 500
)

// Service owns the event list. Every read-modify-write of the store,
// including widget queue merges, happens under writeMu.
type Service struct {
	writeMu sync.Mutex

	store repository.Store
	queue queue.Queue
	hub   *changes.Hub
	rec   *reconcile.Reconciler

	now         func() time.Time
	loc         *time.Location
	timeFormat  export.TimeFormat
	icons       map[model.EventType]string
	pageSize    int
	maxPageSize int

	rngMu sync.Mutex
	rng   *rand.Rand

	startedAt time.Time
	logger    logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the event store. Defaults to an in-memory store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithQueue sets the widget queue. Defaults to an in-memory queue.
func WithQueue(q queue.Queue) Option {
	return func(s *Service) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithHub sets the change hub.
func WithHub(h *changes.Hub) Option {
	return func(s *Service) {
		if h != nil {
			s.hub = h
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the calendar used for ranges and buckets.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTimeFormat sets the default clock used by exports.
func WithTimeFormat(tf export.TimeFormat) Option {
	return func(s *Service) {
		if tf != "" {
			s.timeFormat = tf
		}
	}
}

// WithIcons sets the plain text export icons. Empty values keep the
// built-in icon for that type.
func WithIcons(pee, poop string) Option {
	return func(s *Service) {
		s.icons = map[model.EventType]string{model.Pee: pee, model.Poop: poop}
	}
}

// WithPageSize sets the default and maximum list page sizes.
func WithPageSize(size, maxSize int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
		if maxSize >= s.pageSize {
			s.maxPageSize = maxSize
		}
	}
}

// WithRand sets the random source used for demo data.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service.
func New(opts ...Option) *Service {
	s := &Service{
		now:         time.Now,
		loc:         time.Local,
		timeFormat:  export.Clock24,
		pageSize:    defaultPageSize,
		maxPageSize: defaultMaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.queue == nil {
		s.queue = queue.NewInMemoryQueue()
	}
	if s.hub == nil {
		s.hub = changes.NewHub()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.now().UnixNano())) //nolint:gosec // demo data only
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.rec = reconcile.New(s.store, s.queue, reconcile.WithLocker(&s.writeMu))
	s.startedAt = s.now()
	return s
}

// Start loads the store once to surface corruption early and prime gauges.
func (s *Service) Start(ctx context.Context) error {
	events, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	metrics.UpdateStoreEvents(len(events))
	metrics.UpdateQueueLength(s.queue.Len(ctx))
	s.logger.Info(ctx, "bathlog service started",
		logger.Int("events", len(events)),
		logger.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop closes the change hub, ending every subscription.
func (s *Service) Stop() {
	s.hub.Close()
	s.logger.Info(context.Background(), "bathlog service stopped")
}

// Hub exposes the change feed.
func (s *Service) Hub() *changes.Hub { return s.hub }

// Location returns the default calendar.
func (s *Service) Location() *time.Location { return s.loc }

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	events, err := s.store.Load(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	st := types.Stats{
		StoredEvents:  len(events),
		QueuedEvents:  s.queue.Len(ctx),
		Subscribers:   s.hub.Subscribers(),
		SyncRunning:   s.rec.Running(),
		Timezone:      s.loc.String(),
		UptimeSeconds: int64(s.now().Sub(s.startedAt).Seconds()),
	}
	if len(events) > 0 {
		st.NewestTS = events[0].TS
		st.OldestTS = events[len(events)-1].TS
	}
	metrics.UpdateStoreEvents(st.StoredEvents)
	metrics.UpdateQueueLength(st.QueuedEvents)
	return st, nil
}

// in resolves a per-request location, falling back to the service default.
func (s *Service) in(loc *time.Location) time.Time {
	if loc == nil {
		loc = s.loc
	}
	return s.now().In(loc)
}

func (s *Service) publish(kind changes.Kind, ids []string, count, total int) {
	s.hub.Publish(changes.Change{
		Kind:  kind,
		IDs:   ids,
		Count: count,
		Total: total,
		At:    s.now().UnixMilli(),
	})
}
