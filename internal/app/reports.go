package service

import (
	"context"
	"io"
	"time"

	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/export"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/types"
	"github.com/okian/bathlog/pkg/metrics"
)

// Chart aggregates events for one range and type filter.
func (s *Service) Chart(ctx context.Context, r model.Range, tf model.TypeFilter, loc *time.Location) (aggregate.Chart, error) {
	events, err := s.store.Load(ctx)
	if err != nil {
		return aggregate.Chart{}, err
	}
	start := time.Now()
	chart := aggregate.Compute(events, r, tf, s.in(loc))
	metrics.RecordAggregation(string(r), float64(time.Since(start).Microseconds())/1000)
	return chart, nil
}

// Today returns the widget summary for the current day.
func (s *Service) Today(ctx context.Context, loc *time.Location) (aggregate.DaySummary, error) {
	events, err := s.store.Load(ctx)
	if err != nil {
		return aggregate.DaySummary{}, err
	}
	return aggregate.Today(events, s.in(loc)), nil
}

// Export writes the filtered events with their summary and chart to w.
func (s *Service) Export(ctx context.Context, w io.Writer, req types.ExportRequest) error {
	if req.Format == "" {
		req.Format = export.FormatCSV
	}
	if req.TimeFormat == "" {
		req.TimeFormat = s.timeFormat
	}
	if req.Location == nil {
		req.Location = s.loc
	}

	events, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	now := s.in(req.Location)
	rep := export.Report{
		Events:  aggregate.Filter(events, req.Range, req.Type, now),
		Summary: aggregate.Summarize(events, req.Range, req.Type, now),
		Chart:   aggregate.Compute(events, req.Range, req.Type, now),
	}
	opts := export.Options{TimeFormat: req.TimeFormat, Location: req.Location, Icons: s.icons}
	if err := export.Write(w, req.Format, rep, opts); err != nil {
		metrics.RecordErrorByComponent("export", string(req.Format))
		return err
	}
	metrics.RecordExport(string(req.Format))
	return nil
}
