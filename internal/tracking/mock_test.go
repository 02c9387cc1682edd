package tracking

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// scriptedTracker follows a fixed offset per update and fails on demand.
type scriptedTracker struct {
	mu       sync.Mutex
	box      image.Rectangle
	initOK   bool
	failNext bool
	step     image.Point
	closed   bool
}

func (s *scriptedTracker) Init(img gocv.Mat, box image.Rectangle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.box = box
	return s.initOK
}

func (s *scriptedTracker) Update(img gocv.Mat) (image.Rectangle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		return image.Rectangle{}, false
	}
	s.box = s.box.Add(s.step)
	return s.box, true
}

func (s *scriptedTracker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// scriptedFactory hands out trackers in order and remembers them.
type scriptedFactory struct {
	mu       sync.Mutex
	created  []*scriptedTracker
	initFail map[int]bool
}

func (f *scriptedFactory) New() gocv.Tracker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &scriptedTracker{initOK: !f.initFail[len(f.created)]}
	f.created = append(f.created, t)
	return t
}

// testFrame returns a black 640x480 BGR frame.
func testFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
}
