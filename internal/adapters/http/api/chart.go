package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/model"
)

// ChartDependencies defines the interface for chart aggregation.
type ChartDependencies interface {
	Chart(ctx context.Context, r model.Range, tf model.TypeFilter, loc *time.Location) (aggregate.Chart, error)
}

// ChartHandler handles chart requests.
type ChartHandler struct {
	deps ChartDependencies
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deps ChartDependencies) *ChartHandler {
	return &ChartHandler{deps: deps}
}

// HandleChart handles GET /chart?range=&type=&tz=.
func (h *ChartHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	chart, err := h.deps.Chart(r.Context(), f.Range, f.Type, f.Location)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, chart)
}
