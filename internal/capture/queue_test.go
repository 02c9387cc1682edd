package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func newTestFrame(rows int) *gocv.Mat {
	m := gocv.NewMatWithSize(rows, 4, gocv.MatTypeCV8UC3)
	return &m
}

func TestFrameQueue_DropsNewestWhenFull(t *testing.T) {
	q := NewFrameQueue(2)
	defer q.Drain()

	frames := []*gocv.Mat{newTestFrame(1), newTestFrame(2), newTestFrame(3)}

	accepted := []bool{q.Offer(frames[0]), q.Offer(frames[1]), q.Offer(frames[2])}
	if !accepted[0] || !accepted[1] {
		t.Fatalf("first two offers should be accepted, got %v", accepted)
	}
	if accepted[2] {
		t.Fatal("third offer should be dropped")
	}
	frames[2].Close()

	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}

	stop := make(chan struct{})
	for i, wantRows := range []int{1, 2} {
		f, ok := q.Poll(50*time.Millisecond, stop)
		if !ok {
			t.Fatalf("Poll() #%d returned nothing", i)
		}
		if f.Rows() != wantRows {
			t.Errorf("Poll() #%d rows = %d, want %d", i, f.Rows(), wantRows)
		}
		f.Close()
	}

	if _, ok := q.Poll(10*time.Millisecond, stop); ok {
		t.Error("dropped frame must never be delivered")
	}
}

func TestFrameQueue_OfferNeverBlocks(t *testing.T) {
	q := NewFrameQueue(1)
	defer q.Drain()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			f := newTestFrame(1)
			if !q.Offer(f) {
				f.Close()
			}
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Offer blocked on a full queue")
	}
}

func TestFrameQueue_PollTimeout(t *testing.T) {
	q := NewFrameQueue(2)

	start := time.Now()
	_, ok := q.Poll(50*time.Millisecond, nil)
	elapsed := time.Since(start)

	if ok {
		t.Error("Poll() on empty queue should return false")
	}
	if elapsed < 40*time.Millisecond || elapsed > time.Second {
		t.Errorf("Poll() returned after %v, want about 50ms", elapsed)
	}
}

func TestFrameQueue_PollStops(t *testing.T) {
	q := NewFrameQueue(2)
	stop := make(chan struct{})
	close(stop)

	start := time.Now()
	if _, ok := q.Poll(time.Second, stop); ok {
		t.Error("Poll() should return false after stop")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Poll() did not observe stop promptly")
	}
}

func TestNewFrameQueue_DefaultCapacity(t *testing.T) {
	if got := NewFrameQueue(0).Cap(); got != DefaultQueueCapacity {
		t.Errorf("Cap() = %d, want %d", got, DefaultQueueCapacity)
	}
}
