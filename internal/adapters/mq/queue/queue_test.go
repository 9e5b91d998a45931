package queue

import (
	"context"
	"testing"
	"time"

	"github.com/okian/courtside/internal/domain/model"
)

func delivery(court string, round int) Delivery {
	return Delivery{Snapshot: model.Snapshot{CourtID: court, Round: round}, EnqueuedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}

	if !q.Enqueue(ctx, delivery("C1", 1)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	d := <-q.Dequeue()
	if d.Snapshot.CourtID != "C1" {
		t.Errorf("expected C1, got %v", d.Snapshot.CourtID)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_FullQueueDrops(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, delivery("C1", 1)) || !q.Enqueue(ctx, delivery("C1", 2)) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, delivery("C1", 3)) {
		t.Error("expected enqueue on a full queue to fail without blocking")
	}

	// FIFO order is preserved for what was accepted.
	if d := <-q.Dequeue(); d.Snapshot.Round != 1 {
		t.Errorf("expected round 1 first, got %d", d.Snapshot.Round)
	}
	if d := <-q.Dequeue(); d.Snapshot.Round != 2 {
		t.Errorf("expected round 2 second, got %d", d.Snapshot.Round)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, delivery("C1", 1)) {
		t.Error("expected enqueue with a cancelled context to fail")
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, delivery("C1", 1)) {
		t.Error("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, delivery("C1", 2)) {
		t.Error("expected enqueue to fail after closing")
	}

	// The pending delivery is still drained before the channel closes.
	var got []Delivery
	timeout := time.After(100 * time.Millisecond)
	for done := false; !done; {
		select {
		case d, ok := <-q.Dequeue():
			if !ok {
				done = true
				continue
			}
			got = append(got, d)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
	if len(got) != 1 {
		t.Errorf("expected 1 drained delivery, got %d", len(got))
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
