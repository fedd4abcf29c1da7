package aggregate

import (
	"time"

	"github.com/okian/bathlog/internal/domain/bucket"
	"github.com/okian/bathlog/internal/domain/model"
)

// Summary is the export heading for a range and type filter.
type Summary struct {
	Range model.Range      `json:"range"`
	Label string           `json:"label"`
	Type  model.TypeFilter `json:"type"`
	Total int              `json:"total"`
	Pee   int              `json:"pee"`
	Poop  int              `json:"poop"`
}

// Summarize counts events in the range that pass tf.
func Summarize(events []model.Event, r model.Range, tf model.TypeFilter, now time.Time) Summary {
	t := CountByType(Filter(events, r, tf, now))
	return Summary{
		Range: r,
		Label: r.Label(),
		Type:  tf,
		Total: t.Sum(),
		Pee:   t.Pee,
		Poop:  t.Poop,
	}
}

// DaySummary is what the home screen widget shows for the current day.
// Last timestamps are 0 when no event of that type happened today.
type DaySummary struct {
	Date     string `json:"date"`
	Pee      int    `json:"pee"`
	Poop     int    `json:"poop"`
	LastPee  int64  `json:"last_pee"`
	LastPoop int64  `json:"last_poop"`
}

// Today summarizes events falling on now's calendar day.
func Today(events []model.Event, now time.Time) DaySummary {
	loc := now.Location()
	key := bucket.Key(now, bucket.KindDay)
	s := DaySummary{Date: key}
	for _, e := range events {
		if bucket.Key(e.At(loc), bucket.KindDay) != key {
			continue
		}
		switch e.Type {
		case model.Pee:
			s.Pee++
			if e.TS > s.LastPee {
				s.LastPee = e.TS
			}
		case model.Poop:
			s.Poop++
			if e.TS > s.LastPoop {
				s.LastPoop = e.TS
			}
		}
	}
	return s
}
