// Package stream pushes event list changes to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/bathlog/internal/domain/changes"
	"github.com/okian/bathlog/pkg/logger"
	"github.com/okian/bathlog/pkg/metrics"
)

// Path is the route the change feed is served on.
const Path = "/events/stream"

const (
	defaultWriteTimeout = 5 * time.Second
	defaultPingInterval = 30 * time.Second
)

// Subscriber is the part of the change hub the feed needs.
type Subscriber interface {
	Subscribe() (<-chan changes.Change, func())
	Dropped() int64
}

// Handler upgrades requests to websockets and writes one JSON text message
// per change until the client goes away or the hub closes.
type Handler struct {
	hub          Subscriber
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pingInterval time.Duration
	clients      atomic.Int64
	reported     atomic.Int64
	log          logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithCheckOrigin replaces the origin check. The default allows every
// origin, which suits a local single-user server.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// WithWriteTimeout bounds each websocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler creates a change feed over hub.
func NewHandler(hub Subscriber, opts ...Option) *Handler {
	h := &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		writeTimeout: defaultWriteTimeout,
		pingInterval: defaultPingInterval,
		log:          logger.Get().Named("stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register attaches the feed to mux.
func Register(_ context.Context, mux *http.ServeMux, h *Handler) {
	mux.Handle(Path, h)
}

// Clients returns the number of connected clients.
func (h *Handler) Clients() int {
	return int(h.clients.Load())
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.log.Warn(ctx, "websocket upgrade failed", logger.Error(err))
		metrics.RecordErrorByComponent("stream", "upgrade")
		return
	}

	feed, cancel := h.hub.Subscribe()
	n := h.clients.Add(1)
	metrics.UpdateStreamSubscribers(int(n))
	h.log.Debug(ctx, "stream client connected",
		logger.String("remote", r.RemoteAddr),
		logger.Int64("clients", n))

	defer func() {
		cancel()
		_ = conn.Close()
		n := h.clients.Add(-1)
		metrics.UpdateStreamSubscribers(int(n))
		h.reportDropped()
		h.log.Debug(ctx, "stream client disconnected", logger.Int64("clients", n))
	}()

	gone := make(chan struct{})
	go h.readLoop(conn, gone)
	h.writeLoop(ctx, conn, feed, gone)
}

// readLoop drains client frames so control messages are processed, and
// closes gone once the peer disconnects.
func (h *Handler) readLoop(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, feed <-chan changes.Change, gone <-chan struct{}) {
	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ctx.Done():
			return
		case c, ok := <-feed:
			if !ok {
				h.close(conn, websocket.CloseGoingAway, "shutting down")
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				h.log.Error(ctx, "marshal change failed", logger.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug(ctx, "stream write failed", logger.Error(err))
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(h.writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// reportDropped adds the hub drops not yet counted to the metric.
func (h *Handler) reportDropped() {
	cur := h.hub.Dropped()
	if prev := h.reported.Swap(cur); cur > prev {
		metrics.RecordStreamDropped(cur - prev)
	}
}

func (h *Handler) close(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.writeTimeout))
}
