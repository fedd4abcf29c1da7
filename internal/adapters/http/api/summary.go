package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/bathlog/internal/domain/aggregate"
)

// SummaryDependencies defines the interface for the widget day summary.
type SummaryDependencies interface {
	Today(ctx context.Context, loc *time.Location) (aggregate.DaySummary, error)
}

// SummaryHandler handles summary requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

// HandleToday handles GET /summary/today?tz=.
func (h *SummaryHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_today"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}
	loc, err := parseLocation(r.URL.Query().Get("tz"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	day, err := h.deps.Today(r.Context(), loc)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, day)
}
