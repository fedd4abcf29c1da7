package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bathlog/internal/adapters/http/api"
	"github.com/okian/bathlog/internal/adapters/mq/queue"
	"github.com/okian/bathlog/internal/adapters/mq/worker"
	service "github.com/okian/bathlog/internal/app"
	"github.com/okian/bathlog/pkg/logger"
)

func TestLoad(t *testing.T) {
	Convey("Given a running server", t, func() {
		So(logger.Init(logger.WithOutput(io.Discard)), ShouldBeNil)
		dir := t.TempDir()
		writeConfig(t, dir)

		srv := service.New(service.WithQueue(queue.NewInMemoryQueue(queue.WithDebounce(0))))
		defer srv.Stop()
		syncer, err := worker.NewSyncer(srv)
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(srv, syncer).Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		Convey("load posts traffic and reports the verified counts", func() {
			out, err := run(dir, "load", "--url", ts.URL, "--events", "20", "--taps", "2", "--tap-interval", "0s", "--seed", "3")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "logged 20/20 events, queued 2 taps (0 debounced), stored 0 -> 22")
		})

		Convey("load fails when nothing listens at the url", func() {
			ts.Close()
			_, err := run(dir, "load", "--url", ts.URL, "--events", "1", "--taps", "0")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Listen addresses become client URLs", t, func() {
		So(urlFromAddr(":9080"), ShouldEqual, "http://localhost:9080")
		So(urlFromAddr("127.0.0.1:8000"), ShouldEqual, "http://127.0.0.1:8000")
	})
}
