// Package worker drains a subscriber's queue into its sink.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/courtside/internal/adapters/mq/queue"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/logger"
	"github.com/okian/courtside/pkg/metrics"
)

// Sink is the subscriber endpoint a snapshot is written to.
type Sink interface {
	Send(ctx context.Context, snap model.Snapshot) error
}

// Source defines how workers receive deliveries.
type Source interface {
	Dequeue() <-chan queue.Delivery
}

// Worker delivers queued snapshots until stopped.
type Worker interface {
	// Run starts the delivery loop until ctx is canceled, Shutdown is called,
	// the source closes, or the sink fails.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one subscription.
type InMemoryWorker struct {
	source    Source
	sink      Sink
	name      string
	onFailure func(error)

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(source Source, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:   source,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run implements Worker.Run.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	deliveries := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := w.deliver(ctx, d); err != nil {
				w.logger.Debug(ctx, "delivery failed, stopping subscription",
					logger.String("court", d.Snapshot.CourtID),
					logger.Error(err),
				)
				if w.onFailure != nil {
					w.onFailure(err)
				}
				return
			}
		}
	}
}

func (w *InMemoryWorker) deliver(ctx context.Context, d queue.Delivery) error { //nolint:gocritic // hugeParam: Delivery is passed by value for channel semantics
	if err := w.sink.Send(ctx, d.Snapshot); err != nil {
		metrics.RecordBroadcastSendError()
		return fmt.Errorf("deliver snapshot for court %s: %w", d.Snapshot.CourtID, err)
	}
	metrics.RecordDeliveryLatency(float64(time.Since(d.EnqueuedAt).Microseconds()) / 1000)
	return nil
}

// Shutdown implements Worker.Shutdown.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}
