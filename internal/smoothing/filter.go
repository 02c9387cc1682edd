// Package smoothing provides a fixed-window moving average over 2D point streams.
package smoothing

import "image"

// DefaultWindow is the number of raw points averaged per channel.
const DefaultWindow = 5

// History is a bounded FIFO of raw points for one finger channel.
// It is owned by a single goroutine and is not safe for concurrent use.
//
// The filter is a plain moving average: every held point has equal weight,
// there is no prediction and no outlier rejection.
type History struct {
	points []image.Point
	window int
}

// NewHistory creates an empty History holding at most window points.
// A window less than 1 falls back to DefaultWindow.
func NewHistory(window int) *History {
	if window < 1 {
		window = DefaultWindow
	}
	return &History{
		points: make([]image.Point, 0, window+1),
		window: window,
	}
}

// Update appends p, evicts the oldest point when the window is exceeded and
// returns the mean of the held points. Coordinates are truncated to integers.
func (h *History) Update(p image.Point) image.Point {
	h.points = append(h.points, p)
	if len(h.points) > h.window {
		copy(h.points, h.points[1:])
		h.points = h.points[:h.window]
	}

	var sumX, sumY float64
	for _, pt := range h.points {
		sumX += float64(pt.X)
		sumY += float64(pt.Y)
	}
	n := float64(len(h.points))

	return image.Point{X: int(sumX / n), Y: int(sumY / n)}
}

// Len returns the number of points currently held.
func (h *History) Len() int {
	return len(h.points)
}

// Window returns the maximum number of points held.
func (h *History) Window() int {
	return h.window
}

// Points returns a copy of the held points, oldest first.
func (h *History) Points() []image.Point {
	out := make([]image.Point, len(h.points))
	copy(out, h.points)
	return out
}

// Reset drops all held points.
func (h *History) Reset() {
	h.points = h.points[:0]
}
