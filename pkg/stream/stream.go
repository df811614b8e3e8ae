// Package stream pushes simulation snapshots to websocket clients so an
// external renderer can follow a run.
package stream

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opd-ai/go-leaksim/pkg/engine"
	"github.com/opd-ai/go-leaksim/pkg/logging"
	"github.com/opd-ai/go-leaksim/pkg/validation"
)

const writeWait = 5 * time.Second

// Source provides the state to stream
type Source interface {
	Snapshot() engine.State
}

// Handler upgrades requests to websockets and writes a State JSON message
// every interval until the client goes away or the handler's context ends.
type Handler struct {
	ctx      context.Context
	source   Source
	interval time.Duration
	limiter  *validation.RateLimiter
	logger   *logging.Logger
	upgrader websocket.Upgrader
	active   atomic.Int64
}

// NewHandler creates a stream handler. A nil limiter accepts every
// connection; a nil logger discards output.
func NewHandler(ctx context.Context, source Source, interval time.Duration, limiter *validation.RateLimiter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		ctx:      ctx,
		source:   source,
		interval: interval,
		limiter:  limiter,
		logger:   logger.WithComponent("stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Active returns the number of connected clients
func (h *Handler) Active() int64 {
	return h.active.Load()
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host := clientHost(r.RemoteAddr)
	if h.limiter != nil && !h.limiter.Allow(host) {
		h.logger.Warn(r.Context(), "Stream connection rate limited", "host", host)
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "Websocket upgrade failed", "host", host, "error", err.Error())
		return
	}
	defer conn.Close()

	h.active.Add(1)
	defer h.active.Add(-1)
	h.logger.Info(r.Context(), "Stream client connected", "host", host)

	closed := make(chan struct{})
	go h.drain(conn, closed)

	h.push(conn, closed)
	h.logger.Info(r.Context(), "Stream client disconnected", "host", host)
}

// drain reads and discards client frames so control messages are handled
// and a disconnect is noticed
func (h *Handler) drain(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) push(conn *websocket.Conn, closed <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	send := func() bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(h.source.Snapshot()) == nil
	}
	if !send() {
		return
	}

	for {
		select {
		case <-ticker.C:
			if !send() {
				return
			}
		case <-closed:
			return
		case <-h.ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "simulation stopped")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
