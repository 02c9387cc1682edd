package detector

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/handtouch/internal/capture"
	"gocv.io/x/gocv"
)

// DefaultPollTimeout bounds how long the worker waits for a frame before it
// re-checks for shutdown.
const DefaultPollTimeout = 50 * time.Millisecond

// Result is the outcome of one completed inference.
type Result struct {
	// Hand is nil when the processed frame contained no hand.
	Hand *HandLandmarks `json:"hand"`
	// Width and Height are the dimensions of the processed frame.
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// HasHand reports whether the result carries a hand.
func (r *Result) HasHand() bool {
	return r != nil && r.Hand != nil
}

func (r *Result) clone() *Result {
	out := *r
	if r.Hand != nil {
		hand := *r.Hand
		out.Hand = &hand
	}
	return &out
}

// Worker pulls frames from a FrameQueue, runs the detector on them and keeps
// only the most recent result.
type Worker struct {
	detector    Detector
	queue       *capture.FrameQueue
	pollTimeout time.Duration

	mu     sync.Mutex
	latest *Result
	seq    uint64
	errs   uint64
}

// NewWorker creates a Worker. A non-positive pollTimeout uses DefaultPollTimeout.
func NewWorker(d Detector, queue *capture.FrameQueue, pollTimeout time.Duration) *Worker {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Worker{
		detector:    d,
		queue:       queue,
		pollTimeout: pollTimeout,
	}
}

// Run processes frames until stop is closed, then discards any queued frames
// and releases the detector.
func (w *Worker) Run(stop <-chan struct{}) {
	log.Println("Hand landmark worker started")
	defer func() {
		w.queue.Drain()
		if err := w.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
		log.Println("Hand landmark worker stopped")
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, ok := w.queue.Poll(w.pollTimeout, stop)
		if !ok {
			continue
		}

		w.process(frame)
		frame.Close()
	}
}

// process runs inference on one frame. Failures, including panics raised by
// the backend, are logged and leave the previous result in place.
func (w *Worker) process(frame *gocv.Mat) {
	defer func() {
		if r := recover(); r != nil {
			w.recordError()
			log.Printf("Error in hand landmark worker: %v", r)
		}
	}()

	hands, err := w.detector.Detect(frame)
	if err != nil {
		w.recordError()
		log.Printf("Error detecting hands: %v", err)
		return
	}

	result := &Result{
		Width:     frame.Cols(),
		Height:    frame.Rows(),
		Timestamp: time.Now(),
	}
	if len(hands) > 0 {
		hand := hands[0]
		result.Hand = &hand
	}

	w.mu.Lock()
	w.seq++
	result.Sequence = w.seq
	w.latest = result
	w.mu.Unlock()
}

func (w *Worker) recordError() {
	w.mu.Lock()
	w.errs++
	w.mu.Unlock()
}

// Results returns a copy of the latest result, or nil if no inference has
// completed yet.
func (w *Worker) Results() *Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.latest == nil {
		return nil
	}
	return w.latest.clone()
}

// Errors returns the number of failed inferences.
func (w *Worker) Errors() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errs
}
