// Package aggregate counts events per type per bucket and derives the chart
// and summary views consumed by the API, exports and the CLI.
package aggregate

import (
	"time"

	"github.com/okian/bathlog/internal/domain/bucket"
	"github.com/okian/bathlog/internal/domain/model"
)

// Series is the per-bucket count array of one event type, aligned to the
// bucket keys.
type Series struct {
	Type   model.EventType `json:"type"`
	Label  string          `json:"label"`
	Counts []int           `json:"counts"`
}

// Total sums the series.
func (s Series) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Totals holds per-type counts.
type Totals struct {
	Pee  int `json:"pee"`
	Poop int `json:"poop"`
}

// Sum is the combined count.
func (t Totals) Sum() int { return t.Pee + t.Poop }

// Of returns the count for one type.
func (t Totals) Of(typ model.EventType) int {
	switch typ {
	case model.Pee:
		return t.Pee
	case model.Poop:
		return t.Poop
	}
	return 0
}

func (t *Totals) add(typ model.EventType, n int) {
	switch typ {
	case model.Pee:
		t.Pee += n
	case model.Poop:
		t.Poop += n
	}
}

// Result is the aggregate over one bucket layout.
type Result struct {
	Series         []Series `json:"series"`
	Totals         Totals   `json:"totals"`
	NonZeroBuckets int      `json:"non_zero_buckets"`
	ChartWorthy    bool     `json:"chart_worthy"`
	MaxValue       int      `json:"max_value"`
}

// Aggregate counts events into cfg's buckets. Events whose key is not in the
// layout are skipped. Only series selected by tf are returned and only they
// decide chart worthiness; totals are the sums of the per-type count arrays.
func Aggregate(events []model.Event, cfg bucket.Config, tf model.TypeFilter) Result {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	index := cfg.Index()

	counts := make(map[model.EventType][]int, len(model.EventTypes))
	for _, typ := range model.EventTypes {
		counts[typ] = make([]int, cfg.Len())
	}

	for _, e := range events {
		arr, ok := counts[e.Type]
		if !ok {
			continue
		}
		i, ok := index[bucket.Key(e.At(loc), cfg.Kind)]
		if !ok {
			continue
		}
		arr[i]++
	}

	res := Result{Series: []Series{}, MaxValue: 1}
	for _, typ := range model.EventTypes {
		for _, c := range counts[typ] {
			res.Totals.add(typ, c)
		}
	}

	nonZero := make(map[int]struct{})
	for _, typ := range tf.Types() {
		arr := counts[typ]
		res.Series = append(res.Series, Series{Type: typ, Label: typ.Label(), Counts: arr})
		for i, c := range arr {
			if c == 0 {
				continue
			}
			nonZero[i] = struct{}{}
			if c > res.MaxValue {
				res.MaxValue = c
			}
		}
	}
	res.NonZeroBuckets = len(nonZero)
	res.ChartWorthy = res.NonZeroBuckets > 1
	return res
}

// Filter keeps events at or after the range start that pass tf. The input
// order is preserved.
func Filter(events []model.Event, r model.Range, tf model.TypeFilter, now time.Time) []model.Event {
	start := bucket.RangeStart(r, now).UnixMilli()
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.TS >= start && tf.Match(e.Type) {
			out = append(out, e)
		}
	}
	return out
}

// Chart bundles a bucket layout with its aggregate.
type Chart struct {
	Range   model.Range      `json:"range"`
	Filter  model.TypeFilter `json:"type"`
	Buckets bucket.Config    `json:"buckets"`
	Result
}

// Compute filters events by range and type, lays out the buckets and
// aggregates in one step.
func Compute(events []model.Event, r model.Range, tf model.TypeFilter, now time.Time) Chart {
	filtered := Filter(events, r, tf, now)
	cfg := bucket.Build(r, now, filtered)
	return Chart{
		Range:   r,
		Filter:  tf,
		Buckets: cfg,
		Result:  Aggregate(filtered, cfg, tf),
	}
}

// CountByType tallies events per type without bucketing.
func CountByType(events []model.Event) Totals {
	var t Totals
	for _, e := range events {
		t.add(e.Type, 1)
	}
	return t
}
