package capture

import (
	"time"

	"gocv.io/x/gocv"
)

// DefaultQueueCapacity is the number of frames buffered for the landmark worker.
const DefaultQueueCapacity = 2

// FrameQueue is a fixed-capacity frame channel. The producer side never
// blocks: when the queue is full the offered frame is dropped.
type FrameQueue struct {
	ch chan *gocv.Mat
}

// NewFrameQueue creates a FrameQueue holding at most capacity frames.
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	return &FrameQueue{ch: make(chan *gocv.Mat, capacity)}
}

// Offer enqueues frame if there is room and reports whether it was accepted.
// On success the queue owns frame; on failure ownership stays with the caller.
func (q *FrameQueue) Offer(frame *gocv.Mat) bool {
	select {
	case q.ch <- frame:
		return true
	default:
		return false
	}
}

// Poll waits up to timeout for a frame. It returns early with false when stop
// is closed.
func (q *FrameQueue) Poll(timeout time.Duration, stop <-chan struct{}) (*gocv.Mat, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-q.ch:
		return frame, true
	case <-timer.C:
		return nil, false
	case <-stop:
		return nil, false
	}
}

// Drain closes and discards every queued frame.
func (q *FrameQueue) Drain() {
	for {
		select {
		case frame := <-q.ch:
			if frame != nil {
				frame.Close()
			}
		default:
			return
		}
	}
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *FrameQueue) Cap() int {
	return cap(q.ch)
}
