package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Init", t, func() {
		Convey("defaults to the text handler", func() {
			So(Init(WithOutput(&bytes.Buffer{})), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("accepts json", func() {
			So(Init(WithFormat("JSON"), WithOutput(&bytes.Buffer{})), ShouldBeNil)
		})

		Convey("rejects unknown formats", func() {
			So(Init(WithFormat("xml")), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a json logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("fields and source are emitted", func() {
			Get().Info(ctx, "stored", String("id", "e1"), Int("count", 2), Error(errors.New("boom")))

			var entry map[string]any
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
			So(entry["msg"], ShouldEqual, "stored")
			So(entry["id"], ShouldEqual, "e1")
			So(entry["count"], ShouldEqual, 2)
			So(entry["source"], ShouldContainSubstring, "logger_test.go")
		})

		Convey("named loggers carry the component", func() {
			Named("sync").Warn(ctx, "skipped")
			So(buf.String(), ShouldContainSubstring, `"component":"sync"`)
		})

		Convey("debug is suppressed at info level", func() {
			Get().Debug(ctx, "hidden")
			So(buf.Len(), ShouldEqual, 0)

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "shown")
			So(strings.Contains(buf.String(), "shown"), ShouldBeTrue)
		})

		Convey("unknown levels are rejected", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}
