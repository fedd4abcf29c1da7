package service

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/bathlog/internal/adapters/repository"
	"github.com/okian/bathlog/internal/domain/changes"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/reconcile"
	"github.com/okian/bathlog/internal/domain/seed"
	"github.com/okian/bathlog/pkg/logger"
)

// Sync promotes queued widget events into the store. It returns
// reconcile.ErrSyncInFlight when another sync is running.
func (s *Service) Sync(ctx context.Context) (reconcile.Result, error) {
	res, err := s.rec.Sync(ctx)
	if res.Outcome == reconcile.OutcomeMerged {
		// Published even when the queue clear failed: the store changed.
		s.publish(changes.KindMerged, res.PromotedIDs, res.Promoted, len(res.Events))
	}
	return res, err
}

// Seed generates a demo history and appends it to, or replaces, the store.
// It returns the number of generated events.
func (s *Service) Seed(ctx context.Context, mode seed.Mode, cfg seed.Config) (int, error) {
	s.rngMu.Lock()
	generated, err := seed.Generate(s.in(nil), s.rng, cfg)
	s.rngMu.Unlock()
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var existing []model.Event
	if mode == seed.ModeAppend {
		existing, err = s.store.Load(ctx)
		if err != nil {
			return 0, err
		}
	}
	next := seed.Apply(existing, generated, mode)
	if err := s.store.Save(ctx, next); err != nil {
		return 0, fmt.Errorf("save seeded events: %w", err)
	}

	s.logger.Info(ctx, "demo data seeded",
		logger.String("mode", string(mode)),
		logger.Int("generated", len(generated)),
		logger.Int("total", len(next)),
	)
	s.publish(changes.KindSeeded, nil, len(generated), len(next))
	return len(generated), nil
}

// Backup writes a compressed snapshot of the store to w and returns the
// number of events in it.
func (s *Service) Backup(ctx context.Context, w io.Writer) (int, error) {
	events, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := repository.WriteSnapshot(w, events); err != nil {
		return 0, err
	}
	return len(events), nil
}

// Restore replaces the store with the snapshot read from r.
func (s *Service) Restore(ctx context.Context, r io.Reader) (int, error) {
	events, err := repository.ReadSnapshot(r)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.Save(ctx, events); err != nil {
		return 0, fmt.Errorf("save restored events: %w", err)
	}

	s.logger.Info(ctx, "snapshot restored", logger.Int("events", len(events)))
	s.publish(changes.KindRestored, nil, len(events), len(events))
	return len(events), nil
}
