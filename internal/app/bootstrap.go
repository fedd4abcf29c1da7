package service

import (
	"fmt"

	"github.com/okian/bathlog/internal/adapters/mq/queue"
	"github.com/okian/bathlog/internal/adapters/repository"
	"github.com/okian/bathlog/internal/config"
	"github.com/okian/bathlog/internal/domain/changes"
	"github.com/okian/bathlog/internal/domain/export"
)

// FromConfig builds a Service over the file store and widget queue named by
// cfg. Extra options are applied last and win.
func FromConfig(cfg *config.Config, opts ...Option) (*Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	tf, err := export.ParseTimeFormat(cfg.TimeFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	base := []Option{
		WithStore(repository.NewFileStore(cfg.EventsPath)),
		WithQueue(queue.NewFileQueue(cfg.QueuePath, queue.WithDebounce(cfg.WidgetDebounce()))),
		WithHub(changes.NewHub(changes.WithBuffer(cfg.StreamBuffer))),
		WithLocation(loc),
		WithTimeFormat(tf),
		WithIcons(cfg.IconPee, cfg.IconPoop),
		WithPageSize(cfg.PageSize, cfg.MaxPageSize),
	}
	return New(append(base, opts...)...), nil
}
