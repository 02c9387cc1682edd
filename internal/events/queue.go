// Package events provides the unbounded interaction event queue consumed by
// the external controller.
package events

import (
	"context"
	"sync"
)

// Event is a discrete interaction signal. It carries no payload.
type Event string

// TouchDetected is emitted when a fingertip comes within the touch radius of a
// tracked point.
const TouchDetected Event = "TOUCH_DETECTED"

// Queue is an unbounded FIFO of events. Push never blocks, so a slow consumer
// cannot stall the producer.
type Queue struct {
	mu     sync.Mutex
	items  []Event
	notify chan struct{}
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Push appends e to the queue.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TryNext pops the oldest event without blocking.
func (q *Queue) TryNext() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}
	e := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return e, true
}

// Next blocks until an event is available or ctx is done.
func (q *Queue) Next(ctx context.Context) (Event, error) {
	for {
		if e, ok := q.TryNext(); ok {
			return e, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
