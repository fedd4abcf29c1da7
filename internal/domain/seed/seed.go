// Package seed generates realistic demo histories.
package seed

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/reconcile"
)

// Default generation parameters.
const (
	defaultDays      = 90
	defaultMinTotal  = 300
	defaultMaxTotal  = 600
	defaultMinPerDay = 2
	defaultMaxPerDay = 10
	defaultPeeRatio  = 0.85

	earlyShare = 0.1
	// Minutes in 00:00-06:00 and 06:00-23:30.
	earlyWindow = 6 * 60
	dayWindow   = 17*60 + 30
)

// Config bounds the generated history.
type Config struct {
	Days      int
	MinTotal  int
	MaxTotal  int
	MinPerDay int
	MaxPerDay int
	PeeRatio  float64
}

// DefaultConfig returns 90 days of 2..10 events per day, 300..600 in total,
// 85% pee.
func DefaultConfig() Config {
	return Config{
		Days:      defaultDays,
		MinTotal:  defaultMinTotal,
		MaxTotal:  defaultMaxTotal,
		MinPerDay: defaultMinPerDay,
		MaxPerDay: defaultMaxPerDay,
		PeeRatio:  defaultPeeRatio,
	}
}

// ForDays returns c over a different number of days, with the total bounds
// scaled in proportion and kept reachable by the per day bounds.
func (c Config) ForDays(days int) Config {
	if days <= 0 || c.Days <= 0 || days == c.Days {
		return c
	}
	out := c
	out.Days = days
	out.MinTotal = max(c.MinTotal*days/c.Days, days*c.MinPerDay)
	out.MaxTotal = min(max(c.MaxTotal*days/c.Days, out.MinTotal), days*c.MaxPerDay)
	return out
}

// Validate checks that the bounds can be satisfied together.
func (c Config) Validate() error {
	switch {
	case c.Days <= 0:
		return fmt.Errorf("%w: days must be positive", ErrInvalidConfig)
	case c.MinPerDay < 0 || c.MaxPerDay < c.MinPerDay:
		return fmt.Errorf("%w: per day bounds %d..%d", ErrInvalidConfig, c.MinPerDay, c.MaxPerDay)
	case c.MaxTotal < c.MinTotal:
		return fmt.Errorf("%w: total bounds %d..%d", ErrInvalidConfig, c.MinTotal, c.MaxTotal)
	case c.MinTotal > c.Days*c.MaxPerDay || c.MaxTotal < c.Days*c.MinPerDay:
		return fmt.Errorf("%w: totals unreachable with per day bounds", ErrInvalidConfig)
	case c.PeeRatio < 0 || c.PeeRatio > 1:
		return fmt.Errorf("%w: pee ratio must be within 0..1", ErrInvalidConfig)
	}
	return nil
}

// Generate builds a history ending today, newest first. Each day falls back
// from now's local midnight; 10% of events land between 00:00 and 06:00 and
// the rest follow a triangular distribution over 06:00 to 23:30.
func Generate(now time.Time, rng *rand.Rand, cfg Config) ([]model.Event, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}

	counts := dailyCounts(rng, cfg)
	events := make([]model.Event, 0, sum(counts))
	y, m, d := now.Date()
	for day, n := range counts {
		base := time.Date(y, m, d-day, 0, 0, 0, 0, now.Location())
		for i := 0; i < n; i++ {
			var minutes int
			if rng.Float64() < earlyShare {
				minutes = rng.Intn(earlyWindow)
			} else {
				minutes = earlyWindow + int((rng.Float64()+rng.Float64())/2*dayWindow)
			}
			ts := base.Add(time.Duration(minutes)*time.Minute + time.Duration(rng.Intn(60))*time.Second).UnixMilli()

			typ := model.Poop
			if rng.Float64() < cfg.PeeRatio {
				typ = model.Pee
			}
			events = append(events, model.Event{
				ID:   fmt.Sprintf("seed-%d-%d-%d-%s", ts, day, i, suffix(rng)),
				Type: typ,
				TS:   ts,
			})
		}
	}
	reconcile.SortDesc(events)
	return events, nil
}

// dailyCounts draws a per day count and nudges random days until the total
// is within bounds.
func dailyCounts(rng *rand.Rand, cfg Config) []int {
	counts := make([]int, cfg.Days)
	for i := range counts {
		counts[i] = between(rng, cfg.MinPerDay, cfg.MaxPerDay)
	}
	total := sum(counts)
	for total > cfg.MaxTotal {
		i := rng.Intn(len(counts))
		if counts[i] > cfg.MinPerDay {
			counts[i]--
			total--
		}
	}
	for total < cfg.MinTotal {
		i := rng.Intn(len(counts))
		if counts[i] < cfg.MaxPerDay {
			counts[i]++
			total++
		}
	}
	return counts
}

func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func suffix(rng *rand.Rand) string {
	s := strconv.FormatInt(rng.Int63(), 36)
	if len(s) > 4 {
		s = s[:4]
	}
	return s
}

// Mode chooses how seeded events combine with the existing store.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModeReplace Mode = "replace"
)

// ParseMode parses "append" or "replace". Empty input means replace.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeReplace, nil
	case ModeAppend, ModeReplace:
		return m, nil
	}
	return "", ErrInvalidMode
}

// Apply combines seeded with existing according to mode, newest first.
func Apply(existing, seeded []model.Event, mode Mode) []model.Event {
	var out []model.Event
	if mode == ModeAppend {
		out = make([]model.Event, 0, len(seeded)+len(existing))
		out = append(out, seeded...)
		out = append(out, existing...)
	} else {
		out = append([]model.Event(nil), seeded...)
	}
	reconcile.SortDesc(out)
	return out
}
