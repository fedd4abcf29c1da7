package api

import (
	"context"
	"net/http"

	"github.com/okian/bathlog/internal/domain/reconcile"
)

// SyncDependencies runs one widget queue merge.
type SyncDependencies interface {
	RunNow(ctx context.Context) (reconcile.Result, error)
}

type syncResponse struct {
	Outcome  reconcile.Outcome `json:"outcome"`
	Promoted int               `json:"promoted"`
	IDs      []string          `json:"ids"`
	Total    int               `json:"total"`
}

// SyncHandler handles sync requests.
type SyncHandler struct {
	deps SyncDependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

// HandleSync handles POST /sync. It answers 409 while another merge runs.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}
	res, err := h.deps.RunNow(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	ids := res.PromotedIDs
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, syncResponse{
		Outcome:  res.Outcome,
		Promoted: res.Promoted,
		IDs:      ids,
		Total:    len(res.Events),
	})
}
