package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/bathlog/internal/domain/export"
	"github.com/okian/bathlog/internal/domain/types"
)

// ExportDependencies defines the interface for document exports.
type ExportDependencies interface {
	Export(ctx context.Context, w io.Writer, req types.ExportRequest) error
}

// ExportHandler handles export requests.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export?format=&range=&type=&time_format=&tz=.
// The document is rendered fully before any byte is sent so failures still
// produce a JSON error.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}
	q := r.URL.Query()
	f, err := parseFilters(q)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	clock, err := export.ParseTimeFormat(q.Get("time_format"))
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if q.Get("time_format") == "" {
		clock = ""
	}

	var buf bytes.Buffer
	err = h.deps.Export(r.Context(), &buf, types.ExportRequest{
		Format:     format,
		Range:      f.Range,
		Type:       f.Type,
		TimeFormat: clock,
		Location:   f.Location,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}

	filename := fmt.Sprintf("bathlog-%s-%s.%s", f.Range, f.Type, format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
