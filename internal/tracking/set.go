package tracking

import (
	"image"
	"image/color"
	"log"
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Default geometry in pixels.
const (
	DefaultBoxSize      = 100
	DefaultMarkerRadius = 10
	DefaultTouchRadius  = 10
)

// MarkerColor is the fill colour of a live tracker marker.
var MarkerColor = color.RGBA{R: 255, G: 0, B: 0}

// Geometry holds the fixed sizes used by a Set.
type Geometry struct {
	BoxSize      int
	MarkerRadius int
	TouchRadius  float64
}

// DefaultGeometry returns the standard 100px box, 10px marker and 10px touch radius.
func DefaultGeometry() Geometry {
	return Geometry{
		BoxSize:      DefaultBoxSize,
		MarkerRadius: DefaultMarkerRadius,
		TouchRadius:  DefaultTouchRadius,
	}
}

// Tracker is one live tracker and its last known box.
type Tracker struct {
	ID  uuid.UUID
	Box image.Rectangle

	impl gocv.Tracker
}

// Center returns the center of the tracker's box, truncated to whole pixels.
func (t *Tracker) Center() image.Point {
	return boxCenter(t.Box)
}

func boxCenter(r image.Rectangle) image.Point {
	return image.Point{
		X: int(float64(r.Min.X) + float64(r.Dx())/2),
		Y: int(float64(r.Min.Y) + float64(r.Dy())/2),
	}
}

// BoxAround returns a size x size box centered on p with its origin clamped to
// be non-negative.
func BoxAround(p image.Point, size int) image.Rectangle {
	x := p.X - size/2
	if x < 0 {
		x = 0
	}
	y := p.Y - size/2
	if y < 0 {
		y = 0
	}
	return image.Rect(x, y, x+size, y+size)
}

// Set owns the active trackers. The collection is only ever replaced whole or
// shrunk by eviction; it is never merged with a new batch.
type Set struct {
	factory  Factory
	geometry Geometry

	mu       sync.Mutex
	trackers []*Tracker
}

// NewSet creates an empty Set.
func NewSet(factory Factory, geometry Geometry) *Set {
	return &Set{
		factory:  factory,
		geometry: geometry,
	}
}

// Geometry returns the set's fixed sizes.
func (s *Set) Geometry() Geometry {
	return s.geometry
}

// Replace discards every current tracker and installs one new tracker per
// point, initialised against frame. Points whose tracker fails to initialise
// are logged and omitted. It returns the number of trackers installed.
func (s *Set) Replace(points []image.Point, frame gocv.Mat) int {
	created := make([]*Tracker, 0, len(points))
	for _, p := range points {
		t, err := s.newTracker(p, frame)
		if err != nil {
			log.Printf("Failed to initialize tracker at %v: %v", p, err)
			continue
		}
		created = append(created, t)
	}

	s.mu.Lock()
	old := s.trackers
	s.trackers = created
	s.mu.Unlock()

	closeAll(old)
	return len(created)
}

func (s *Set) newTracker(p image.Point, frame gocv.Mat) (t *Tracker, err error) {
	if frame.Empty() {
		return nil, errEmptyFrame
	}

	impl := s.factory()
	defer func() {
		if r := recover(); r != nil {
			impl.Close()
			t, err = nil, panicError{r}
		}
	}()

	box := BoxAround(p, s.geometry.BoxSize)
	if !impl.Init(frame, box) {
		impl.Close()
		return nil, errInitFailed
	}

	return &Tracker{ID: uuid.New(), Box: box, impl: impl}, nil
}

// Update advances every tracker against frame and returns the centers of the
// trackers that are still live, in creation order. Trackers that fail are
// logged and evicted. When annotate is non-nil a marker is drawn on it at each
// live center.
func (s *Set) Update(frame gocv.Mat, annotate *gocv.Mat) []image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.trackers) == 0 {
		return nil
	}

	live := s.trackers[:0]
	var evicted []*Tracker
	centers := make([]image.Point, 0, len(s.trackers))

	for _, t := range s.trackers {
		box, ok := update(t.impl, frame)
		if !ok {
			log.Printf("Tracking failed for tracker %s", t.ID)
			evicted = append(evicted, t)
			continue
		}

		t.Box = box
		centers = append(centers, t.Center())
		live = append(live, t)
	}

	// Markers go on after every tracker has seen the clean frame.
	if annotate != nil {
		for _, c := range centers {
			gocv.Circle(annotate, c, s.geometry.MarkerRadius, MarkerColor, -1)
		}
	}

	for i := len(live); i < len(s.trackers); i++ {
		s.trackers[i] = nil
	}
	s.trackers = live

	closeAll(evicted)
	return centers
}

func update(impl gocv.Tracker, frame gocv.Mat) (box image.Rectangle, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return impl.Update(frame)
}

// Clear discards every tracker.
func (s *Set) Clear() {
	s.mu.Lock()
	old := s.trackers
	s.trackers = nil
	s.mu.Unlock()

	closeAll(old)
}

// Len returns the number of live trackers.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}

// Snapshot returns a copy of the live trackers' ids and boxes.
func (s *Set) Snapshot() []Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Tracker, len(s.trackers))
	for i, t := range s.trackers {
		out[i] = Tracker{ID: t.ID, Box: t.Box}
	}
	return out
}

func closeAll(trackers []*Tracker) {
	for _, t := range trackers {
		if t != nil && t.impl != nil {
			t.impl.Close()
		}
	}
}
