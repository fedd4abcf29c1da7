package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/bathlog/internal/domain/model"
)

// WidgetDependencies defines the interface for widget taps.
type WidgetDependencies interface {
	QueueWidgetEvent(ctx context.Context, t model.EventType) (model.Event, error)
}

type widgetRequest struct {
	Type string `json:"type"`
}

// WidgetHandler handles widget requests.
type WidgetHandler struct {
	deps WidgetDependencies
}

// NewWidgetHandler creates a new widget handler.
func NewWidgetHandler(deps WidgetDependencies) *WidgetHandler {
	return &WidgetHandler{deps: deps}
}

// HandlePostWidgetEvent handles POST /widget/events. The tap is queued and
// reaches the event list on the next sync.
func (h *WidgetHandler) HandlePostWidgetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_widget_event"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}
	var req widgetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<12)).Decode(&req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	t, err := model.ParseEventType(req.Type)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := h.deps.QueueWidgetEvent(r.Context(), t)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, e)
}
