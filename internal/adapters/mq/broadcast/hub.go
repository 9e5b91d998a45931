// Package broadcast fans court snapshots out to subscribers. Each
// subscription owns a bounded queue and a delivery worker, so publishing
// never blocks the court that produced the snapshot.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

const defaultBufferSize = 64

// Subscription is one sink attached to one court.
type Subscription struct {
	ID      string
	CourtID string

	queue  *queue.InMemoryQueue
	worker *worker.InMemoryWorker
	cancel context.CancelFunc
}

// Hub tracks subscriptions per court.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*Subscription
	closed bool

	bufferSize int
	logger     logger.Logger
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithBufferSize sets the per-subscription queue capacity.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[string]*Subscription),
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("broadcast")
	}
	return h
}

// Subscribe attaches sink to courtID and starts its delivery worker.
// Returns nil once the hub is closed.
func (h *Hub) Subscribe(ctx context.Context, courtID string, sink worker.Sink) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := &Subscription{
		ID:      uuid.NewString(),
		CourtID: courtID,
		queue:   queue.NewInMemoryQueue(queue.WithCapacity(h.bufferSize)),
		cancel:  cancel,
	}
	sub.worker = worker.NewInMemoryWorker(sub.queue, sink,
		worker.WithName("subscriber-"+sub.ID[:8]),
		worker.WithLogger(h.logger),
		worker.WithOnFailure(func(error) { h.Unsubscribe(sub) }),
	)

	room, ok := h.rooms[courtID]
	if !ok {
		room = make(map[string]*Subscription)
		h.rooms[courtID] = room
	}
	room[sub.ID] = sub
	metrics.AddSubscribers(1)

	go sub.worker.Run(runCtx)

	h.logger.Debug(ctx, "subscriber attached",
		logger.String("court", courtID),
		logger.String("subscription", sub.ID),
	)
	return sub
}

// Unsubscribe detaches sub and stops its worker. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[sub.CourtID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room[sub.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room, sub.ID)
	if len(room) == 0 {
		delete(h.rooms, sub.CourtID)
	}
	h.mu.Unlock()

	metrics.AddSubscribers(-1)
	sub.cancel()
	_ = sub.queue.Close()
}

// Publish queues snap for every subscriber of courtID and returns how many
// accepted it. Subscribers with a full queue miss this snapshot.
func (h *Hub) Publish(ctx context.Context, courtID string, snap model.Snapshot) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	d := queue.Delivery{Snapshot: snap, EnqueuedAt: time.Now()}
	accepted := 0
	for _, sub := range h.rooms[courtID] {
		if sub.queue.Enqueue(ctx, d) {
			accepted++
			metrics.RecordBroadcastPublished()
			continue
		}
		metrics.RecordBroadcastDropped()
		h.logger.Warn(ctx, "subscriber queue full, snapshot dropped",
			logger.String("court", courtID),
			logger.String("subscription", sub.ID),
		)
	}
	return accepted
}

// Deliver queues snap for a single subscription, used for the initial sync.
func (h *Hub) Deliver(ctx context.Context, sub *Subscription, snap model.Snapshot) bool {
	if sub == nil {
		return false
	}
	ok := sub.queue.Enqueue(ctx, queue.Delivery{Snapshot: snap, EnqueuedAt: time.Now()})
	if ok {
		metrics.RecordBroadcastPublished()
	} else {
		metrics.RecordBroadcastDropped()
	}
	return ok
}

// Count returns the number of subscribers attached to courtID.
func (h *Hub) Count(courtID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[courtID])
}

// Total returns the number of subscribers across all courts.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Close detaches every subscription and waits for their workers to stop.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	var subs []*Subscription
	for _, room := range h.rooms {
		for _, sub := range room {
			subs = append(subs, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.Unsubscribe(sub)
	}
	for _, sub := range subs {
		if err := sub.worker.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}
