package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/changes"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/types"
	"github.com/okian/bathlog/pkg/logger"
	"github.com/okian/bathlog/pkg/metrics"
)

// Event sources recorded in metrics.
const (
	SourceApp    = "app"
	SourceWidget = "widget"
)

// LogEvent stores a new event of type t. A zero ts means now.
func (s *Service) LogEvent(ctx context.Context, t model.EventType, ts int64) (model.Event, error) {
	if !t.Valid() {
		return model.Event{}, model.ErrInvalidType
	}
	if ts < 0 {
		return model.Event{}, model.ErrInvalidTimestamp
	}
	at := s.now()
	if ts > 0 {
		at = time.UnixMilli(ts)
	}
	e := model.Event{ID: model.NewEventID(at), Type: t, TS: at.UnixMilli()}

	s.writeMu.Lock()
	events, err := s.store.Append(ctx, e)
	s.writeMu.Unlock()
	if err != nil {
		metrics.RecordErrorByComponent("service", "append")
		return model.Event{}, fmt.Errorf("append event: %w", err)
	}

	metrics.RecordEventLogged(string(t), SourceApp)
	s.logger.Debug(ctx, "event logged", logger.String("id", e.ID), logger.String("type", string(t)))
	s.publish(changes.KindLogged, []string{e.ID}, 1, len(events))
	return e, nil
}

// ListEvents returns range and type filtered events, newest first.
func (s *Service) ListEvents(ctx context.Context, q types.ListQuery) (types.Page, error) {
	if q.Range == "" {
		q.Range = model.RangeToday
	}
	if q.Type == "" {
		q.Type = model.FilterAll
	}
	if q.Limit <= 0 {
		q.Limit = s.pageSize
	}
	if q.Limit > s.maxPageSize {
		q.Limit = s.maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	events, err := s.store.Load(ctx)
	if err != nil {
		return types.Page{}, err
	}
	now := s.in(q.Location)
	inRange := aggregate.Filter(events, q.Range, model.FilterAll, now)
	counts := aggregate.CountByType(inRange)
	filtered := aggregate.Filter(inRange, q.Range, q.Type, now)

	page := types.Page{
		Events: []model.Event{},
		Total:  len(filtered),
		Limit:  q.Limit,
		Offset: q.Offset,
		Counts: types.RangeCounts{
			Range: q.Range,
			Total: counts.Sum(),
			Pee:   counts.Pee,
			Poop:  counts.Poop,
		},
	}
	if q.Offset < len(filtered) {
		end := min(q.Offset+q.Limit, len(filtered))
		page.Events = append(page.Events, filtered[q.Offset:end]...)
	}
	return page, nil
}

// DeleteEvent removes one event by id.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	s.writeMu.Lock()
	err := s.store.Delete(ctx, id)
	var total int
	if err == nil {
		var events []model.Event
		events, err = s.store.Load(ctx)
		total = len(events)
	}
	s.writeMu.Unlock()
	if err != nil {
		return err
	}

	metrics.RecordEventsDeleted(1)
	s.publish(changes.KindDeleted, []string{id}, 1, total)
	return nil
}

// ClearEvents deletes every stored event and returns how many there were.
func (s *Service) ClearEvents(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	events, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.store.Clear(ctx); err != nil {
		return 0, err
	}

	metrics.RecordEventsDeleted(len(events))
	s.logger.Info(ctx, "events cleared", logger.Int("count", len(events)))
	s.publish(changes.KindCleared, nil, len(events), 0)
	return len(events), nil
}

// QueueWidgetEvent records a widget tap in the pending queue. The event
// reaches the store on the next sync.
func (s *Service) QueueWidgetEvent(ctx context.Context, t model.EventType) (model.Event, error) {
	e, err := s.queue.Append(ctx, t)
	if err != nil {
		return model.Event{}, err
	}
	metrics.RecordEventLogged(string(t), SourceWidget)
	return e, nil
}
