// Package bucket turns a named range and the current time into a window start
// and an ordered, gap-free sequence of calendar buckets.
//
// All calendar math happens in the location of the supplied now. Keys are
// built from calendar components rather than elapsed durations so days with a
// DST transition still yield exactly one key per hour or day.
package bucket

import (
	"fmt"
	"strconv"
	"time"

	"github.com/okian/bathlog/internal/domain/model"
)

// Kind is the granularity of a bucket.
type Kind string

const (
	KindHour  Kind = "hour"
	KindDay   Kind = "day"
	KindMonth Kind = "month"
)

// targetTicks is the number of interior axis labels variable-length ranges aim for.
const targetTicks = 6

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Config is the bucket layout for one (range, now) pair.
// Keys and Labels always have the same length and order.
type Config struct {
	Kind       Kind     `json:"kind"`
	Keys       []string `json:"keys"`
	Labels     []string `json:"labels"`
	TickValues []int    `json:"tick_values"`

	// Location is the calendar the keys were computed in.
	Location *time.Location `json:"-"`
}

// Len returns the number of buckets.
func (c Config) Len() int { return len(c.Keys) }

// Empty reports whether the layout has no buckets.
func (c Config) Empty() bool { return len(c.Keys) == 0 }

// Index builds the key to bucket index lookup.
func (c Config) Index() map[string]int {
	idx := make(map[string]int, len(c.Keys))
	for i, k := range c.Keys {
		idx[k] = i
	}
	return idx
}

// KindFor returns the granularity used for a range.
func KindFor(r model.Range) Kind {
	switch r {
	case model.RangeToday:
		return KindHour
	case model.RangeWeek, model.RangeMonth:
		return KindDay
	default:
		return KindMonth
	}
}

// Key formats t's calendar unit at the given granularity, in t's location.
func Key(t time.Time, kind Kind) string {
	switch kind {
	case KindHour:
		return hourKey(t.Year(), t.Month(), t.Day(), t.Hour())
	case KindMonth:
		return monthKey(t.Year(), t.Month())
	default:
		return dayKey(t.Year(), t.Month(), t.Day())
	}
}

func hourKey(y int, m time.Month, d, h int) string {
	return fmt.Sprintf("%04d-%02d-%02d-%02d", y, int(m), d, h)
}

func dayKey(y int, m time.Month, d int) string {
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

func monthKey(y int, m time.Month) string {
	return fmt.Sprintf("%04d-%02d", y, int(m))
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns local midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	diff := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-diff, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns local midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfYear returns local midnight of January 1 of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// RangeStart returns the lower bound of the window. The window has no upper
// bound. The all range starts at the epoch.
func RangeStart(r model.Range, now time.Time) time.Time {
	switch r {
	case model.RangeToday:
		return StartOfDay(now)
	case model.RangeWeek:
		return StartOfWeek(now)
	case model.RangeMonth:
		return StartOfMonth(now)
	case model.RangeYear:
		return StartOfYear(now)
	default:
		return time.UnixMilli(0).In(now.Location())
	}
}

// Build lays out the buckets for r at now. For the all range, events must be
// the filtered set; its earliest timestamp defines the first month and an
// empty set yields an empty Config. Other ranges ignore events.
func Build(r model.Range, now time.Time, events []model.Event) Config {
	loc := now.Location()
	cfg := Config{Kind: KindFor(r), Location: loc}
	step := 1

	switch r {
	case model.RangeToday:
		y, m, d := now.Date()
		for h := 0; h < 24; h++ {
			cfg.Keys = append(cfg.Keys, hourKey(y, m, d, h))
			cfg.Labels = append(cfg.Labels, strconv.Itoa(h))
		}
		step = 4

	case model.RangeWeek:
		start := StartOfWeek(now)
		for i := 0; i < 7; i++ {
			// Noon keeps the date stable across DST shifts.
			day := time.Date(start.Year(), start.Month(), start.Day()+i, 12, 0, 0, 0, loc)
			cfg.Keys = append(cfg.Keys, Key(day, KindDay))
			cfg.Labels = append(cfg.Labels, fmt.Sprintf("%d/%d", int(day.Month()), day.Day()))
		}

	case model.RangeMonth:
		y, m, today := now.Date()
		for d := 1; d <= today; d++ {
			cfg.Keys = append(cfg.Keys, dayKey(y, m, d))
			cfg.Labels = append(cfg.Labels, strconv.Itoa(d))
		}
		step = ceilDiv(today, targetTicks)

	case model.RangeYear:
		y := now.Year()
		for m := time.January; m <= now.Month(); m++ {
			cfg.Keys = append(cfg.Keys, monthKey(y, m))
			cfg.Labels = append(cfg.Labels, monthLabels[m-1])
		}

	default:
		earliest, ok := earliestTS(events)
		if !ok {
			cfg.Keys, cfg.Labels, cfg.TickValues = []string{}, []string{}, []int{}
			return cfg
		}
		first := time.UnixMilli(earliest).In(loc)
		y, m := first.Year(), first.Month()
		for y < now.Year() || (y == now.Year() && m <= now.Month()) {
			cfg.Keys = append(cfg.Keys, monthKey(y, m))
			cfg.Labels = append(cfg.Labels, fmt.Sprintf("%s %d", monthLabels[m-1], y))
			if m == time.December {
				y, m = y+1, time.January
			} else {
				m++
			}
		}
		step = ceilDiv(len(cfg.Keys), targetTicks)
	}

	if cfg.Keys == nil {
		cfg.Keys, cfg.Labels = []string{}, []string{}
	}
	cfg.TickValues = Ticks(len(cfg.Keys), step)
	return cfg
}

// Ticks selects axis label indices: every step-th index from 0, plus the last
// index when the stride does not land on it. Length 0 yields no ticks.
func Ticks(length, step int) []int {
	ticks := []int{}
	if length <= 0 {
		return ticks
	}
	if step < 1 {
		step = 1
	}
	for i := 0; i < length; i += step {
		ticks = append(ticks, i)
	}
	if ticks[len(ticks)-1] != length-1 {
		ticks = append(ticks, length-1)
	}
	return ticks
}

// earliestTS scans for the minimum timestamp; input order is not assumed.
func earliestTS(events []model.Event) (int64, bool) {
	if len(events) == 0 {
		return 0, false
	}
	lowest := events[0].TS
	for _, e := range events[1:] {
		if e.TS < lowest {
			lowest = e.TS
		}
	}
	return lowest, true
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 1
	}
	return (n + d - 1) / d
}
