package testevents

import (
	"context"
	"math/rand"
	"time"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/pkg/logger"
)

const peeShare = 0.85

// generateEvents builds NumEvents requests with timestamps spread uniformly
// over the last Days days, newest allowed one minute before now.
func generateEvents(ctx context.Context, config *Config, now time.Time, stats *Stats) []EventRequest {
	seed := config.Seed
	if seed == 0 {
		seed = now.UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // traffic shape only

	logger.Get().Info(ctx, "generating events",
		logger.Int("numEvents", config.NumEvents),
		logger.Int("days", config.Days),
		logger.Int64("seed", seed))

	end := now.Add(-time.Minute).UnixMilli()
	span := int64(config.Days) * int64(24*time.Hour/time.Millisecond)
	events := make([]EventRequest, config.NumEvents)
	for i := range events {
		typ := model.Poop
		if rng.Float64() < peeShare {
			typ = model.Pee
		}
		events[i] = EventRequest{
			Type: string(typ),
			TS:   end - rng.Int63n(span),
		}
	}
	stats.EventsGenerated = len(events)
	return events
}
