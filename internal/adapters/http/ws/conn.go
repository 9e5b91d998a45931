package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/courtside/internal/adapters/http/api"
	"github.com/okian/courtside/internal/adapters/mq/broadcast"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/logger"
)

var errMalformedFrame = errors.New("malformed frame")

// conn is one client session. It is the sink for every subscription the
// client opens; writes are serialized by writeMu.
type conn struct {
	h  *Handler
	ws *websocket.Conn

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]*broadcast.Subscription // by court id

	done chan struct{}
}

func newConn(h *Handler, ws *websocket.Conn) *conn {
	return &conn{
		h:    h,
		ws:   ws,
		subs: make(map[string]*broadcast.Subscription),
		done: make(chan struct{}),
	}
}

// Send implements worker.Sink.
func (c *conn) Send(_ context.Context, snap model.Snapshot) error {
	return c.write(EventUpdateScoreboard, snap)
}

func (c *conn) write(event string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.h.writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(outbound{Event: event, Data: data}); err != nil {
		return fmt.Errorf("write %s: %w", event, err)
	}
	return nil
}

func (c *conn) writeError(ctx context.Context, event string, err error) {
	_, code := api.Classify(err)
	if errors.Is(err, errMalformedFrame) {
		code = "bad_request"
	}
	if werr := c.write(event, ErrorPayload{Code: code, Message: err.Error()}); werr != nil {
		c.h.logger.Debug(ctx, "failed to write error event", logger.Error(werr))
	}
}

// serve runs the read loop until the client goes away, then removes every
// subscription the session opened.
func (c *conn) serve(ctx context.Context) {
	defer c.close(ctx)

	pongWait := c.h.pongWait()
	c.ws.SetReadLimit(c.h.readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.keepalive()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.h.logger.Debug(ctx, "read failed", logger.Error(err))
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.writeError(ctx, EventError, fmt.Errorf("%w: %w", errMalformedFrame, err))
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *conn) keepalive() {
	ticker := time.NewTicker(c.h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.h.writeTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

func (c *conn) close(ctx context.Context) {
	close(c.done)

	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*broadcast.Subscription)
	c.mu.Unlock()

	for _, sub := range subs {
		c.h.deps.Leave(ctx, sub)
	}
	_ = c.ws.Close()
}

func (c *conn) dispatch(ctx context.Context, env Envelope) {
	switch env.Event {
	case EventCreateCourt:
		var p createCourtPayload
		if err := decode(env, &p); err != nil {
			c.writeError(ctx, EventError, err)
			return
		}
		c.createCourt(ctx, p)
	case EventRefereeJoined:
		var p refereeJoinedPayload
		if err := decode(env, &p); err != nil {
			c.writeError(ctx, EventJoinError, err)
			return
		}
		c.refereeJoined(ctx, p)
	case EventRefereeScore:
		var p refereeScorePayload
		if err := decode(env, &p); err != nil {
			c.writeError(ctx, EventError, err)
			return
		}
		c.refereeScore(ctx, p)
	case EventJoinScoreboard:
		var p joinScoreboardPayload
		if err := decode(env, &p); err != nil {
			c.writeError(ctx, EventJoinError, err)
			return
		}
		c.joinScoreboard(ctx, p)
	default:
		c.writeError(ctx, EventError, fmt.Errorf("%w: unknown event %q", errMalformedFrame, env.Event))
	}
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", errMalformedFrame, env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", errMalformedFrame, env.Event, err)
	}
	return nil
}

func (c *conn) createCourt(ctx context.Context, p createCourtPayload) {
	created, err := c.h.deps.CreateCourt(ctx, p.CourtID, p.OTP, p.Referees)
	if err != nil {
		c.writeError(ctx, EventError, err)
		return
	}
	_ = c.write(EventCourtCreated, courtCreatedPayload{
		CourtID:  created.CourtID,
		Secret:   created.Secret,
		Referees: created.Referees,
	})
}

func (c *conn) refereeJoined(ctx context.Context, p refereeJoinedPayload) {
	binding, sub, err := c.h.deps.JoinAsReferee(ctx, p.Referee, p.Court, p.OTP, c.sinkFor(p.Court))
	if err != nil {
		c.writeError(ctx, EventJoinError, err)
		return
	}
	c.track(sub)
	_ = c.write(EventJoinSuccess, binding)
}

func (c *conn) refereeScore(ctx context.Context, p refereeScorePayload) {
	if _, err := c.h.deps.SubmitScore(ctx, p.submission()); err != nil {
		c.writeError(ctx, EventError, err)
	}
}

func (c *conn) joinScoreboard(ctx context.Context, p joinScoreboardPayload) {
	sink := c.sinkFor(p.Court)
	snap, sub, err := c.h.deps.JoinAsViewer(ctx, p.Court, sink)
	if err != nil {
		c.writeError(ctx, EventJoinError, err)
		return
	}
	c.track(sub)
	if sink == nil {
		// Already subscribed; answer directly instead of opening a second stream.
		_ = c.write(EventUpdateScoreboard, snap)
	}
}

// sinkFor returns nil when the session already follows courtID.
func (c *conn) sinkFor(courtID string) worker.Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[courtID]; ok {
		return nil
	}
	return c
}

func (c *conn) track(sub *broadcast.Subscription) {
	if sub == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[sub.CourtID] = sub
}
