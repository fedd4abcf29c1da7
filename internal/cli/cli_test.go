package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/bucket"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/types"
)

// run executes bathlogctl with args against a config file in dir.
func run(dir string, args ...string) (string, error) {
	cfgPath := filepath.Join(dir, "bathlog.yaml")
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) {
	t.Helper()
	yaml := strings.Join([]string{
		"log_level: error",
		"timezone: UTC",
		"events_path: " + filepath.Join(dir, "events.json"),
		"queue_path: " + filepath.Join(dir, "queue.json"),
		"widget_debounce_ms: 0",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "bathlog.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCommands(t *testing.T) {
	Convey("Given bathlogctl over an empty store", t, func() {
		dir := t.TempDir()
		writeConfig(t, dir)

		Convey("Widget taps are queued and merged by sync", func() {
			out, err := run(dir, "widget", "add", "--type", "pee")
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "queued widget-")

			_, err = run(dir, "widget", "add", "--type", "poop")
			So(err, ShouldBeNil)

			out, err = run(dir, "sync")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "merged: promoted 2, 2 events stored")

			out, err = run(dir, "sync")
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "noop")
		})

		Convey("A widget tap needs a known type", func() {
			_, err := run(dir, "widget", "add", "--type", "sneeze")
			So(err, ShouldNotBeNil)
			_, err = run(dir, "widget", "add")
			So(err, ShouldNotBeNil)
		})

		Convey("Seed fills the store and export writes it as CSV", func() {
			out, err := run(dir, "seed", "--days", "10")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "(replace)")

			out, err = run(dir, "export", "--format", "csv", "--range", "all")
			So(err, ShouldBeNil)
			rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
			So(err, ShouldBeNil)
			So(rows[0], ShouldResemble, []string{"Date", "Time", "Type", "Timestamp"})
			So(len(rows), ShouldBeGreaterThan, 1)
		})

		Convey("Export to a file leaves stdout empty", func() {
			target := filepath.Join(dir, "out.xlsx")
			out, err := run(dir, "export", "--format", "xlsx", "--out", target)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
			info, err := os.Stat(target)
			So(err, ShouldBeNil)
			So(info.Size(), ShouldBeGreaterThan, 0)
		})

		Convey("Export rejects unknown formats", func() {
			_, err := run(dir, "export", "--format", "pdf")
			So(err, ShouldNotBeNil)
		})

		Convey("Backup and restore round trip the store", func() {
			_, err := run(dir, "seed", "--days", "5")
			So(err, ShouldBeNil)
			before, err := os.ReadFile(filepath.Join(dir, "events.json"))
			So(err, ShouldBeNil)

			snap := filepath.Join(dir, "backup.jsonl.zst")
			out, err := run(dir, "backup", "--out", snap)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "backed up")

			_, err = run(dir, "seed", "--days", "3")
			So(err, ShouldBeNil)

			out, err = run(dir, "restore", "--in", snap)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "restored")

			after, err := os.ReadFile(filepath.Join(dir, "events.json"))
			So(err, ShouldBeNil)
			So(string(after), ShouldEqual, string(before))
		})

		Convey("Stats renders a chart once there are events", func() {
			out, err := run(dir, "stats", "--range", "today")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "no events in range")

			_, err = run(dir, "widget", "add", "--type", "pee")
			So(err, ShouldBeNil)
			_, err = run(dir, "sync")
			So(err, ShouldBeNil)

			out, err = run(dir, "stats", "--range", "today", "--type", "pee")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Today")
			So(out, ShouldContainSubstring, "█")
		})

		Convey("A missing config file is an error", func() {
			So(os.Remove(filepath.Join(dir, "bathlog.yaml")), ShouldBeNil)
			_, err := run(dir, "sync")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRenderStats(t *testing.T) {
	Convey("Given a two bucket chart", t, func() {
		chart := aggregate.Chart{
			Range:   model.RangeWeek,
			Filter:  model.FilterAll,
			Buckets: bucket.Config{Labels: []string{"Mon", "Tue"}},
			Result: aggregate.Result{
				Series: []aggregate.Series{
					{Type: model.Pee, Counts: []int{4, 2}},
					{Type: model.Poop, Counts: []int{0, 1}},
				},
				Totals:   aggregate.Totals{Pee: 6, Poop: 1},
				MaxValue: 4,
			},
		}
		out := renderStats(chart, types.RangeCounts{Range: model.RangeWeek, Total: 7, Pee: 6, Poop: 1})

		Convey("Each bucket and series gets a row scaled to the max", func() {
			So(out, ShouldContainSubstring, "This week")
			So(out, ShouldContainSubstring, "Mon")
			So(out, ShouldContainSubstring, "Tue")
			So(out, ShouldContainSubstring, strings.Repeat("█", barWidth)+" 4")
			So(out, ShouldContainSubstring, strings.Repeat("█", barWidth/2)+" 2")
		})
	})

	Convey("Bars are never empty for a non-zero count", t, func() {
		So(bar(1, 1000), ShouldEqual, "█")
		So(bar(0, 10), ShouldBeEmpty)
	})
}
