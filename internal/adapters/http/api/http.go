// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EventDependencies
	ChartDependencies
	SummaryDependencies
	ExportDependencies
	WidgetDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	eventsHandler  *EventsHandler
	chartHandler   *ChartHandler
	summaryHandler *SummaryHandler
	exportHandler  *ExportHandler
	widgetHandler  *WidgetHandler
	syncHandler    *SyncHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, syncer SyncDependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		eventsHandler:  NewEventsHandler(deps),
		chartHandler:   NewChartHandler(deps),
		summaryHandler: NewSummaryHandler(deps),
		exportHandler:  NewExportHandler(deps),
		widgetHandler:  NewWidgetHandler(deps),
		syncHandler:    NewSyncHandler(syncer),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleEvents, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleEventByID, "event"))
	mux.HandleFunc("/chart", MetricsMiddleware(s.chartHandler.HandleChart, "chart"))
	mux.HandleFunc("/summary/today", MetricsMiddleware(s.summaryHandler.HandleToday, "summary_today"))
	mux.HandleFunc("/export", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
	mux.HandleFunc("/widget/events", MetricsMiddleware(s.widgetHandler.HandlePostWidgetEvent, "widget_events"))
	mux.HandleFunc("/sync", MetricsMiddleware(s.syncHandler.HandleSync, "sync"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to.
func fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func methodNotAllowed(w http.ResponseWriter, op string, allowed string) {
	w.Header().Set("Allow", allowed)
	fail(w, NewKind(op, ErrMethodNotAllowed))
}
