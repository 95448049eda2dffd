// Package relay holds the hand-off state shared between the chat handlers
// and the connection supervisor: the outbound send queue and the set of
// chats known for broadcast fan-out.
package relay

import (
	"context"
	"sync"
)

// Queue is the strict-FIFO buffer between chat-message handlers (producers)
// and the single stream writer (consumer). It is unbounded; backpressure is
// an accepted limitation.
type Queue struct {
	mu    sync.Mutex
	items [][]byte
	wake  chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

func (q *Queue) Enqueue(payload []byte) {
	q.mu.Lock()
	q.items = append(q.items, payload)
	q.mu.Unlock()
	q.signal()
}

// DequeueNext blocks until an item is available or ctx is done.
func (q *Queue) DequeueNext(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// DrainAll atomically removes and returns everything currently queued.
func (q *Queue) DrainAll() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Reload atomically replaces the queue contents with the result of fill.
// Used during reconnect resynchronization: discarding stale entries and
// re-queueing unresolved envelopes happen in one critical section, so a
// concurrent Enqueue can only land after the re-queued set, never between
// the drain and the refill.
func (q *Queue) Reload(fill func() [][]byte) {
	q.mu.Lock()
	q.items = fill()
	n := len(q.items)
	q.mu.Unlock()

	if n > 0 {
		q.signal()
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
