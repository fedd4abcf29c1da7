package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/bathlog/internal/adapters/mq/worker"
	app "github.com/okian/bathlog/internal/app"
	"github.com/okian/bathlog/internal/config"
	"github.com/okian/bathlog/pkg/logger"
	"github.com/okian/bathlog/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("BATHLOG_ADDR", ":8080")
			t.Setenv("BATHLOG_PAGE_SIZE", "25")
			t.Setenv("BATHLOG_SYNC_SCHEDULE", "@every 1m")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)
				convey.So(cfg.SyncSchedule, convey.ShouldEqual, "@every 1m")
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithNamespace("bathlog_main_test"))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a mux over a file backed service", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cfg := config.New()
		cfg.EventsPath = filepath.Join(dir, "events.json")
		cfg.QueuePath = filepath.Join(dir, "queue.json")
		cfg.Timezone = "UTC"

		svc, err := app.FromConfig(cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		syncer, err := worker.NewSyncer(svc)
		convey.So(err, convey.ShouldBeNil)
		mux := newMux(ctx, svc, syncer)

		serve := func(method, target, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, target, strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		convey.Convey("Then the API, docs and metrics routes are served", func() {
			convey.So(serve(http.MethodGet, "/healthz", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve(http.MethodGet, "/openapi.yaml", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve(http.MethodGet, "/stats", "").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then a widget tap reaches the list after POST /sync", func() {
			convey.So(serve(http.MethodPost, "/widget/events", `{"type":"pee"}`).Code, convey.ShouldEqual, http.StatusAccepted)

			w := serve(http.MethodPost, "/sync", "")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"outcome":"merged"`)

			w = serve(http.MethodGet, "/events?range=all", "")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"total":1`)
		})

		convey.Convey("Then the stream route rejects plain requests", func() {
			convey.So(serve(http.MethodGet, "/events/stream", "").Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})

			convey.Convey("And a single update should not panic", func() {
				convey.So(func() {
					updateSystemMetrics()
					updateServiceMetrics(context.Background(), svc)
				}, convey.ShouldNotPanic)
			})
		})
	})
}
