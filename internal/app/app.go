// Package app runs the capture loop and the hand landmark worker and exposes
// the latest frame, the latest detection result, tracker control and the
// touch event stream.
package app

import (
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"github.com/ayusman/handtouch/internal/capture"
	"github.com/ayusman/handtouch/internal/detector"
	"github.com/ayusman/handtouch/internal/events"
	"github.com/ayusman/handtouch/internal/smoothing"
	"github.com/ayusman/handtouch/internal/tracking"
	"gocv.io/x/gocv"
)

// DefaultJoinTimeout bounds how long Stop waits for both loops.
const DefaultJoinTimeout = 2 * time.Second

// ErrStopped is returned when starting an App that has already been stopped.
var ErrStopped = errors.New("app is stopped")

// Config holds configuration options for the application.
type Config struct {
	// CameraSource is a device index ("0") or a stream URL. Ignored when
	// Camera is set.
	CameraSource string
	// Camera overrides the source, mainly for tests.
	Camera capture.Camera
	// Detector defaults to MediaPipe configured by DetectorConfig, falling
	// back to a mock that never reports a hand.
	Detector       detector.Detector
	DetectorConfig detector.Config
	// TrackerFactory defaults to KCF.
	TrackerFactory tracking.Factory
	Geometry       tracking.Geometry

	SmoothingWindow int
	QueueCapacity   int
	PollTimeout     time.Duration
	JoinTimeout     time.Duration
}

// App is the real-time interaction pipeline.
type App struct {
	config   Config
	camera   capture.Camera
	queue    *capture.FrameQueue
	worker   *detector.Worker
	detector detector.Detector
	trackers *tracking.Set
	events   *events.Queue

	frameMu sync.Mutex
	frame   *gocv.Mat

	mu       sync.Mutex
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	done     chan struct{}

	releaseOnce sync.Once
	touches     uint64
	frames      uint64
}

// New opens the camera and builds the pipeline without starting it.
// It returns capture.ErrDeviceUnavailable if the source cannot be opened.
func New(config Config) (*App, error) {
	cam := config.Camera
	if cam == nil {
		var err error
		cam, err = capture.OpenCamera(config.CameraSource)
		if err != nil {
			return nil, err
		}
	}

	if config.Geometry == (tracking.Geometry{}) {
		config.Geometry = tracking.DefaultGeometry()
	}
	if config.TrackerFactory == nil {
		config.TrackerFactory = tracking.NewKCF
	}
	if config.SmoothingWindow <= 0 {
		config.SmoothingWindow = smoothing.DefaultWindow
	}
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = capture.DefaultQueueCapacity
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = detector.DefaultPollTimeout
	}
	if config.JoinTimeout <= 0 {
		config.JoinTimeout = DefaultJoinTimeout
	}
	if config.DetectorConfig == (detector.Config{}) {
		config.DetectorConfig = detector.DefaultConfig()
	}

	d := config.Detector
	if d == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(config.DetectorConfig); err == nil {
			d = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			d = detector.NewMockDetector()
		}
	}

	queue := capture.NewFrameQueue(config.QueueCapacity)

	return &App{
		config:   config,
		camera:   cam,
		queue:    queue,
		detector: d,
		worker:   detector.NewWorker(d, queue, config.PollTimeout),
		trackers: tracking.NewSet(config.TrackerFactory, config.Geometry),
		events:   events.NewQueue(),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the capture loop and the hand landmark worker.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-a.stopCh:
		return ErrStopped
	default:
	}

	// Don't start if already running
	if a.started {
		return nil
	}
	a.started = true

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.worker.Run(a.stopCh)
	}()
	go func() {
		defer a.wg.Done()
		defer close(a.done)
		a.runCapture()
	}()

	log.Println("Detection pipeline started")
	return nil
}

// Stop requests cancellation and waits up to the join timeout for both loops.
// It reports whether both loops exited in time; shutdown proceeds either way.
func (a *App) Stop() bool {
	a.requestStop()

	a.mu.Lock()
	started := a.started
	a.mu.Unlock()

	if !started {
		a.releaseCamera()
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
		return true
	}

	joined := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
		log.Println("Detection pipeline stopped")
		return true
	case <-time.After(a.config.JoinTimeout):
		log.Printf("Detection pipeline did not stop within %v", a.config.JoinTimeout)
		return false
	}
}

func (a *App) requestStop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
	})
}

func (a *App) releaseCamera() {
	a.releaseOnce.Do(func() {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		log.Println("Camera released")
	})
}

// Done is closed when the capture loop has exited.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// Frame returns a copy of the most recent annotated frame, or nil if none has
// been captured yet. The caller must close it.
func (a *App) Frame() *gocv.Mat {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.frame == nil {
		return nil
	}
	c := a.frame.Clone()
	return &c
}

func (a *App) publishFrame(frame *gocv.Mat) {
	a.frameMu.Lock()
	old := a.frame
	a.frame = frame
	a.frameMu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Results returns the most recent hand landmark result, or nil if no inference
// has completed yet.
func (a *App) Results() *detector.Result {
	return a.worker.Results()
}

// CreateTrackers replaces the active trackers with one tracker per point,
// initialised against frame. It returns the number of trackers created.
func (a *App) CreateTrackers(points []image.Point, frame *gocv.Mat) int {
	if frame == nil {
		empty := gocv.NewMat()
		defer empty.Close()
		frame = &empty
	}
	n := a.trackers.Replace(points, *frame)
	log.Printf("Created %d of %d trackers", n, len(points))
	return n
}

// Trackers returns a snapshot of the live trackers.
func (a *App) Trackers() []tracking.Tracker {
	return a.trackers.Snapshot()
}

// Events returns the touch event queue.
func (a *App) Events() *events.Queue {
	return a.events
}

// Stats is a point-in-time view of pipeline counters.
type Stats struct {
	Frames          uint64 `json:"frames"`
	Touches         uint64 `json:"touches"`
	Trackers        int    `json:"trackers"`
	InferenceErrors uint64 `json:"inference_errors"`
	PendingEvents   int    `json:"pending_events"`
}

// Stats returns the current counters.
func (a *App) Stats() Stats {
	a.mu.Lock()
	frames, touches := a.frames, a.touches
	a.mu.Unlock()

	return Stats{
		Frames:          frames,
		Touches:         touches,
		Trackers:        a.trackers.Len(),
		InferenceErrors: a.worker.Errors(),
		PendingEvents:   a.events.Len(),
	}
}
