package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bathlog/internal/adapters/http/api"
	"github.com/okian/bathlog/internal/adapters/mq/queue"
	"github.com/okian/bathlog/internal/adapters/repository"
	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/reconcile"
	"github.com/okian/bathlog/internal/domain/types"
)

// mockDeps records the calls it receives and returns canned results.
type mockDeps struct {
	events    []model.Event
	lastQuery types.ListQuery
	lastLoc   *time.Location
	lastReq   types.ExportRequest
	queued    []model.EventType
	err       error
	exportErr error
}

func (m *mockDeps) LogEvent(_ context.Context, t model.EventType, ts int64) (model.Event, error) {
	if m.err != nil {
		return model.Event{}, m.err
	}
	if ts == 0 {
		ts = 1710496800000
	}
	e := model.Event{ID: fmt.Sprintf("%d-test", ts), Type: t, TS: ts}
	m.events = append(m.events, e)
	return e, nil
}

func (m *mockDeps) ListEvents(_ context.Context, q types.ListQuery) (types.Page, error) {
	m.lastQuery = q
	if m.err != nil {
		return types.Page{}, m.err
	}
	return types.Page{Events: m.events, Total: len(m.events), Limit: 10}, nil
}

func (m *mockDeps) DeleteEvent(_ context.Context, id string) error {
	for i, e := range m.events {
		if e.ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockDeps) ClearEvents(_ context.Context) (int, error) {
	n := len(m.events)
	m.events = nil
	return n, nil
}

func (m *mockDeps) Chart(_ context.Context, r model.Range, tf model.TypeFilter, loc *time.Location) (aggregate.Chart, error) {
	m.lastLoc = loc
	return aggregate.Chart{Range: r, Filter: tf}, nil
}

func (m *mockDeps) Today(_ context.Context, loc *time.Location) (aggregate.DaySummary, error) {
	m.lastLoc = loc
	return aggregate.DaySummary{Date: "2024-03-15", Pee: 2, Poop: 1}, nil
}

func (m *mockDeps) Export(_ context.Context, w io.Writer, req types.ExportRequest) error {
	m.lastReq = req
	if m.exportErr != nil {
		return m.exportErr
	}
	_, err := io.WriteString(w, "Date,Time,Type,Timestamp\n")
	return err
}

func (m *mockDeps) QueueWidgetEvent(_ context.Context, t model.EventType) (model.Event, error) {
	if len(m.queued) > 0 {
		return model.Event{}, queue.ErrDebounced
	}
	m.queued = append(m.queued, t)
	return model.Event{ID: model.WidgetIDPrefix + "1", Type: t, TS: 1}, nil
}

func (m *mockDeps) Stats(_ context.Context) (types.Stats, error) {
	return types.Stats{StoredEvents: len(m.events), Timezone: "UTC"}, nil
}

type mockSyncer struct {
	res reconcile.Result
	err error
}

func (m *mockSyncer) RunNow(_ context.Context) (reconcile.Result, error) {
	return m.res, m.err
}

func newMux(deps *mockDeps, syncer *mockSyncer) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, syncer).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps, &mockSyncer{res: reconcile.Result{Outcome: reconcile.OutcomeNoop}})

		Convey("The health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("The stats endpoint reports the store size", func() {
			deps.events = []model.Event{{ID: "a", Type: model.Pee, TS: 1}}
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var stats types.Stats
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats.StoredEvents, ShouldEqual, 1)
		})

		Convey("Unsupported methods are rejected with an Allow header", func() {
			w := do(mux, http.MethodPut, "/events", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldContainSubstring, "POST")
			So(errorCode(w), ShouldEqual, "method_not_allowed")

			w = do(mux, http.MethodGet, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given the events endpoints", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps, &mockSyncer{})

		Convey("POST /events logs an event", func() {
			w := do(mux, http.MethodPost, "/events", `{"type":"pee","ts":1710496800000}`)
			So(w.Code, ShouldEqual, http.StatusCreated)

			var e model.Event
			So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
			So(e.Type, ShouldEqual, model.Pee)
			So(e.TS, ShouldEqual, 1710496800000)
		})

		Convey("POST /events without ts uses the current time", func() {
			w := do(mux, http.MethodPost, "/events", `{"type":"poop"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(deps.events, ShouldHaveLength, 1)
		})

		Convey("POST /events rejects bad input", func() {
			cases := []string{
				`{"type":"sneeze"}`,
				`{"type":"pee","ts":-5}`,
				`{"type":"pee","extra":1}`,
				`not json`,
			}
			for _, body := range cases {
				w := do(mux, http.MethodPost, "/events", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			}
			So(deps.events, ShouldBeEmpty)
		})

		Convey("Store failures map to 500", func() {
			deps.err = repository.ErrCorruptStore
			w := do(mux, http.MethodPost, "/events", `{"type":"pee"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorCode(w), ShouldEqual, "internal_error")
		})

		Convey("GET /events passes filters and paging through", func() {
			w := do(mux, http.MethodGet, "/events?range=week&type=poop&limit=5&offset=10&tz=Europe/Berlin", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastQuery.Range, ShouldEqual, model.RangeWeek)
			So(deps.lastQuery.Type, ShouldEqual, model.FilterPoop)
			So(deps.lastQuery.Limit, ShouldEqual, 5)
			So(deps.lastQuery.Offset, ShouldEqual, 10)
			So(deps.lastQuery.Location.String(), ShouldEqual, "Europe/Berlin")
		})

		Convey("GET /events defaults to today and all types", func() {
			w := do(mux, http.MethodGet, "/events", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastQuery.Range, ShouldEqual, model.RangeToday)
			So(deps.lastQuery.Type, ShouldEqual, model.FilterAll)
			So(deps.lastQuery.Location, ShouldBeNil)

			var page types.Page
			So(json.Unmarshal(w.Body.Bytes(), &page), ShouldBeNil)
			So(page.Events, ShouldNotBeNil)
			So(w.Body.String(), ShouldContainSubstring, `"events":[]`)
		})

		Convey("GET /events rejects bad query parameters", func() {
			for _, q := range []string{"range=decade", "type=both", "limit=-1", "offset=x", "tz=Mars/Olympus"} {
				w := do(mux, http.MethodGet, "/events?"+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("DELETE /events/{id} removes one event", func() {
			deps.events = []model.Event{{ID: "a", Type: model.Pee, TS: 1}}
			w := do(mux, http.MethodDelete, "/events/a", "")
			So(w.Code, ShouldEqual, http.StatusNoContent)

			w = do(mux, http.MethodDelete, "/events/a", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("DELETE /events clears the list", func() {
			deps.events = []model.Event{{ID: "a", Type: model.Pee, TS: 1}, {ID: "b", Type: model.Poop, TS: 2}}
			w := do(mux, http.MethodDelete, "/events", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"deleted":2`)
		})
	})
}

func TestReportHandlers(t *testing.T) {
	Convey("Given the read-only report endpoints", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps, &mockSyncer{})

		Convey("GET /chart echoes range and type", func() {
			w := do(mux, http.MethodGet, "/chart?range=year&type=pee&tz=UTC", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"range":"year"`)
			So(w.Body.String(), ShouldContainSubstring, `"type":"pee"`)
			So(deps.lastLoc, ShouldEqual, time.UTC)
		})

		Convey("GET /summary/today returns the day counts", func() {
			w := do(mux, http.MethodGet, "/summary/today", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var day aggregate.DaySummary
			So(json.Unmarshal(w.Body.Bytes(), &day), ShouldBeNil)
			So(day.Pee, ShouldEqual, 2)
			So(day.Poop, ShouldEqual, 1)
		})

		Convey("GET /export serves an attachment", func() {
			w := do(mux, http.MethodGet, "/export?format=csv&range=month&time_format=12h", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
			So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename="bathlog-month-all.csv"`)
			So(w.Body.String(), ShouldStartWith, "Date,Time,Type,Timestamp")
			So(string(deps.lastReq.TimeFormat), ShouldEqual, "12h")
		})

		Convey("GET /export leaves the clock to the service default when unset", func() {
			w := do(mux, http.MethodGet, "/export?format=text", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastReq.TimeFormat, ShouldBeEmpty)
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, ".txt")
		})

		Convey("GET /export rejects unknown formats", func() {
			w := do(mux, http.MethodGet, "/export?format=pdf", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A failed export still answers with a JSON error", func() {
			deps.exportErr = errors.New("disk gone")
			w := do(mux, http.MethodGet, "/export", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Header().Get("Content-Disposition"), ShouldBeEmpty)
		})
	})
}

func TestWidgetAndSyncHandlers(t *testing.T) {
	Convey("Given the widget and sync endpoints", t, func() {
		deps := &mockDeps{}
		syncer := &mockSyncer{}
		mux := newMux(deps, syncer)

		Convey("A widget tap is accepted and a quick second tap is debounced", func() {
			w := do(mux, http.MethodPost, "/widget/events", `{"type":"pee"}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, model.WidgetIDPrefix)

			w = do(mux, http.MethodPost, "/widget/events", `{"type":"poop"}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "too_many_requests")
		})

		Convey("A widget tap with an unknown type is rejected", func() {
			w := do(mux, http.MethodPost, "/widget/events", `{"type":"sneeze"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.queued, ShouldBeEmpty)
		})

		Convey("POST /sync reports the merge", func() {
			syncer.res = reconcile.Result{
				Outcome:     reconcile.OutcomeMerged,
				Promoted:    1,
				PromotedIDs: []string{"widget-1"},
				Events:      []model.Event{{ID: "widget-1", Type: model.Pee, TS: 1}},
			}
			w := do(mux, http.MethodPost, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var body struct {
				Outcome  string   `json:"outcome"`
				Promoted int      `json:"promoted"`
				IDs      []string `json:"ids"`
				Total    int      `json:"total"`
			}
			So(json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&body), ShouldBeNil)
			So(body.Outcome, ShouldEqual, "merged")
			So(body.IDs, ShouldResemble, []string{"widget-1"})
			So(body.Total, ShouldEqual, 1)
		})

		Convey("A noop sync returns an empty id list", func() {
			syncer.res = reconcile.Result{Outcome: reconcile.OutcomeNoop}
			w := do(mux, http.MethodPost, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ids":[]`)
		})

		Convey("A sync already in flight answers 409", func() {
			syncer.err = reconcile.ErrSyncInFlight
			w := do(mux, http.MethodPost, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
		})
	})
}
