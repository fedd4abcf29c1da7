package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/types"
)

// EventDependencies defines the interface for event list operations.
type EventDependencies interface {
	LogEvent(ctx context.Context, t model.EventType, ts int64) (model.Event, error)
	ListEvents(ctx context.Context, q types.ListQuery) (types.Page, error)
	DeleteEvent(ctx context.Context, id string) error
	ClearEvents(ctx context.Context) (int, error)
}

// eventRequest is the body of POST /events. A missing ts means now.
type eventRequest struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

type clearResponse struct {
	Deleted int `json:"deleted"`
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleEvents dispatches /events by method.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.HandlePostEvent(w, r)
	case http.MethodGet:
		h.HandleListEvents(w, r)
	case http.MethodDelete:
		h.HandleClearEvents(w, r)
	default:
		methodNotAllowed(w, "api.events", "GET, POST, DELETE")
	}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	var req eventRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	t, err := model.ParseEventType(req.Type)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.TS < 0 {
		fail(w, WrapKind(op, ErrBadRequest, model.ErrInvalidTimestamp))
		return
	}

	e, err := h.deps.LogEvent(r.Context(), t, req.TS)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleListEvents handles GET /events?range=&type=&limit=&offset=&tz=.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	q := r.URL.Query()
	f, err := parseFilters(q)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	limit, err := parseNonNegative(q, "limit")
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	offset, err := parseNonNegative(q, "offset")
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}

	page, err := h.deps.ListEvents(r.Context(), types.ListQuery{
		Range:    f.Range,
		Type:     f.Type,
		Limit:    limit,
		Offset:   offset,
		Location: f.Location,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if page.Events == nil {
		page.Events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleClearEvents handles DELETE /events.
func (h *EventsHandler) HandleClearEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_events"
	n, err := h.deps.ClearEvents(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Deleted: n})
}

// HandleEventByID handles DELETE /events/{id}.
func (h *EventsHandler) HandleEventByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_event"
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, op, http.MethodDelete)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/events/")
	if id == "" || strings.Contains(id, "/") {
		fail(w, WrapKind(op, ErrBadRequest, errors.New("missing event id")))
		return
	}
	if err := h.deps.DeleteEvent(r.Context(), id); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
