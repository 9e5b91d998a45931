package ws

import (
	"time"

	"github.com/okian/courtside/pkg/logger"
)

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithAllowedOrigins restricts the Origin values accepted on upgrade.
// An empty list accepts every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.allowedOrigins = make(map[string]struct{}, len(origins))
		for _, o := range origins {
			h.allowedOrigins[o] = struct{}{}
		}
	}
}

// WithPingInterval sets the keepalive ping period. The pong wait is derived from it.
func WithPingInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithWriteTimeout sets the deadline for each outbound frame.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithReadLimit caps the size of an inbound frame in bytes.
func WithReadLimit(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// WithLogger sets a custom logger for the handler.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}
