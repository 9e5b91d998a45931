// Package ws is the push channel: a WebSocket endpoint that accepts court
// commands as JSON envelopes and streams scoreboard updates back.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/courtside/internal/adapters/mq/broadcast"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Default connection settings.
const (
	defaultPingInterval = 20 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultReadLimit    = 4096

	// pongWaitFactor scales the ping interval into the read deadline.
	pongWaitFactor = 2.5
)

// Dependencies is the slice of the service the push channel drives.
type Dependencies interface {
	CreateCourt(ctx context.Context, courtID, secret string, referees []string) (types.CourtCreated, error)
	JoinAsReferee(ctx context.Context, referee, courtID, secret string, sink worker.Sink) (model.Binding, *broadcast.Subscription, error)
	JoinAsViewer(ctx context.Context, courtID string, sink worker.Sink) (model.Snapshot, *broadcast.Subscription, error)
	SubmitScore(ctx context.Context, sub model.Submission) (model.Snapshot, error)
	Leave(ctx context.Context, sub *broadcast.Subscription)
}

// Handler upgrades requests on /ws and serves one session per connection.
type Handler struct {
	deps     Dependencies
	upgrader websocket.Upgrader

	allowedOrigins map[string]struct{}
	pingInterval   time.Duration
	writeTimeout   time.Duration
	readLimit      int64

	logger logger.Logger
}

// NewHandler creates a push-channel handler.
func NewHandler(deps Dependencies, opts ...Option) *Handler {
	h := &Handler{
		deps:         deps,
		pingInterval: defaultPingInterval,
		writeTimeout: defaultWriteTimeout,
		readLimit:    defaultReadLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("ws")
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Register attaches the push channel to mux.
func (h *Handler) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("GET /ws", h)
}

// checkOrigin accepts requests without an Origin header, which browsers
// always send, so only non-browser clients skip the check.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, ok := h.allowedOrigins[origin]
	return ok
}

func (h *Handler) pongWait() time.Duration {
	return time.Duration(float64(h.pingInterval) * pongWaitFactor)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug(r.Context(), "websocket upgrade failed",
			logger.String("remote", r.RemoteAddr),
			logger.Error(err),
		)
		return
	}

	metrics.AddWSConnections(1)
	defer metrics.AddWSConnections(-1)

	c := newConn(h, ws)
	h.logger.Debug(r.Context(), "client connected", logger.String("remote", r.RemoteAddr))
	c.serve(context.WithoutCancel(r.Context()))
	h.logger.Debug(r.Context(), "client disconnected", logger.String("remote", r.RemoteAddr))
}
