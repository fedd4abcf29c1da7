package aggregate_test

import (
	"testing"
	"time"

	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/bucket"
	"github.com/okian/bathlog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(id string, typ model.EventType, t time.Time) model.Event {
	return model.Event{ID: id, Type: typ, TS: t.UnixMilli()}
}

func TestAggregate(t *testing.T) {
	Convey("Given now 2024-03-15 10:00 and three events this month", t, func() {
		now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
		events := []model.Event{
			ev("a1", model.Pee, time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)),
			ev("b1", model.Poop, time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)),
			ev("a2", model.Pee, time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)),
		}

		Convey("When computing the month chart for all types", func() {
			chart := aggregate.Compute(events, model.RangeMonth, model.FilterAll, now)

			Convey("Then each event lands in its day bucket", func() {
				So(chart.Buckets.Len(), ShouldEqual, 15)
				So(chart.Series, ShouldHaveLength, 2)
				pee, poop := chart.Series[0], chart.Series[1]
				So(pee.Type, ShouldEqual, model.Pee)
				So(pee.Counts[0], ShouldEqual, 1)
				So(pee.Counts[14], ShouldEqual, 1)
				So(poop.Counts[9], ShouldEqual, 1)
				So(pee.Total()+poop.Total(), ShouldEqual, 3)
			})

			Convey("And totals and chart worthiness follow", func() {
				So(chart.Totals, ShouldResemble, aggregate.Totals{Pee: 2, Poop: 1})
				So(chart.NonZeroBuckets, ShouldEqual, 3)
				So(chart.ChartWorthy, ShouldBeTrue)
				So(chart.MaxValue, ShouldEqual, 1)
			})
		})

		Convey("When filtering to one type", func() {
			chart := aggregate.Compute(events, model.RangeMonth, model.FilterPoop, now)

			Convey("Then only that series is included and one bucket is not enough", func() {
				So(chart.Series, ShouldHaveLength, 1)
				So(chart.Series[0].Type, ShouldEqual, model.Poop)
				So(chart.Totals, ShouldResemble, aggregate.Totals{Poop: 1})
				So(chart.NonZeroBuckets, ShouldEqual, 1)
				So(chart.ChartWorthy, ShouldBeFalse)
			})
		})
	})

	Convey("Given events that share a bucket", t, func() {
		now := time.Date(2024, time.March, 15, 22, 0, 0, 0, time.UTC)
		h := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
		events := []model.Event{
			ev("1", model.Pee, h),
			ev("2", model.Pee, h.Add(10*time.Minute)),
			ev("3", model.Poop, h.Add(20*time.Minute)),
		}

		chart := aggregate.Compute(events, model.RangeToday, model.FilterAll, now)

		So(chart.Series[0].Counts[9], ShouldEqual, 2)
		So(chart.Series[1].Counts[9], ShouldEqual, 1)
		So(chart.MaxValue, ShouldEqual, 2)
		So(chart.ChartWorthy, ShouldBeFalse)
	})

	Convey("Given events outside the layout", t, func() {
		cfg := bucket.Build(model.RangeYear, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), nil)
		events := []model.Event{
			ev("old", model.Pee, time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)),
			ev("future", model.Poop, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)),
			{ID: "bad", Type: "tea", TS: 1},
		}

		Convey("Then they are skipped without error", func() {
			res := aggregate.Aggregate(events, cfg, model.FilterAll)
			So(res.Totals.Sum(), ShouldEqual, 0)
			So(res.ChartWorthy, ShouldBeFalse)
			So(res.MaxValue, ShouldEqual, 1)
			for _, s := range res.Series {
				So(s.Total(), ShouldEqual, res.Totals.Of(s.Type))
			}
		})
	})

	Convey("Given no events", t, func() {
		now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

		Convey("Every range degenerates to zeros", func() {
			for _, r := range model.Ranges {
				chart := aggregate.Compute(nil, r, model.FilterAll, now)
				So(chart.Totals.Sum(), ShouldEqual, 0)
				So(chart.ChartWorthy, ShouldBeFalse)
				So(chart.MaxValue, ShouldEqual, 1)
				for _, s := range chart.Series {
					So(len(s.Counts), ShouldEqual, chart.Buckets.Len())
				}
			}
		})
	})

	Convey("Given the all range", t, func() {
		now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
		events := []model.Event{
			ev("n", model.Pee, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)),
			ev("o", model.Poop, time.Date(2023, time.December, 24, 0, 0, 0, 0, time.UTC)),
		}

		chart := aggregate.Compute(events, model.RangeAll, model.FilterAll, now)

		So(chart.Buckets.Keys, ShouldResemble, []string{"2023-12", "2024-01", "2024-02", "2024-03"})
		So(chart.Series[1].Counts[0], ShouldEqual, 1)
		So(chart.Series[0].Counts[3], ShouldEqual, 1)
		So(chart.ChartWorthy, ShouldBeTrue)
	})
}

func TestFilter(t *testing.T) {
	Convey("Given events across two weeks", t, func() {
		now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
		events := []model.Event{
			ev("thisweek", model.Pee, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)),
			ev("lastweek", model.Pee, time.Date(2024, time.March, 10, 23, 59, 0, 0, time.UTC)),
			ev("poop", model.Poop, time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC)),
		}

		So(aggregate.Filter(events, model.RangeWeek, model.FilterAll, now), ShouldHaveLength, 2)
		So(aggregate.Filter(events, model.RangeWeek, model.FilterPee, now), ShouldHaveLength, 1)
		So(aggregate.Filter(events, model.RangeAll, model.FilterAll, now), ShouldHaveLength, 3)
		So(aggregate.CountByType(events), ShouldResemble, aggregate.Totals{Pee: 2, Poop: 1})
	})
}

func TestSummaries(t *testing.T) {
	Convey("Given a mixed history", t, func() {
		now := time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC)
		events := []model.Event{
			ev("p1", model.Pee, time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)),
			ev("p2", model.Pee, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)),
			ev("x1", model.Poop, time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)),
			ev("y1", model.Poop, time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)),
		}

		Convey("Summarize labels the range and counts per type", func() {
			s := aggregate.Summarize(events, model.RangeWeek, model.FilterAll, now)
			So(s.Label, ShouldEqual, "This week")
			So(s.Total, ShouldEqual, 4)
			So(s.Pee, ShouldEqual, 2)
			So(s.Poop, ShouldEqual, 2)

			s = aggregate.Summarize(events, model.RangeToday, model.FilterPoop, now)
			So(s.Total, ShouldEqual, 1)
			So(s.Pee, ShouldEqual, 0)
		})

		Convey("Today reports counts and latest times", func() {
			d := aggregate.Today(events, now)
			So(d.Date, ShouldEqual, "2024-03-15")
			So(d.Pee, ShouldEqual, 2)
			So(d.Poop, ShouldEqual, 1)
			So(d.LastPee, ShouldEqual, events[1].TS)
			So(d.LastPoop, ShouldEqual, events[2].TS)
		})

		Convey("Today is empty on a quiet day", func() {
			d := aggregate.Today(events, now.AddDate(0, 0, 2))
			So(d.Pee+d.Poop, ShouldEqual, 0)
			So(d.LastPee, ShouldEqual, 0)
		})
	})
}
