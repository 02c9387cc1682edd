package tracking

import (
	"image"
	"math"
)

// Touch describes the pair that fired a touch.
type Touch struct {
	// Tracker is the index of the tracker center in creation order.
	Tracker int
	Center  image.Point
	// Finger is the index into the finger points (0 thumb, 1 index).
	Finger   int
	Point    image.Point
	Distance float64
}

// DetectTouch scans (center, finger) pairs in center order then finger order
// and returns the first pair closer than radius. Scanning stops at the first
// hit, so at most one touch is reported per call.
func DetectTouch(centers, fingers []image.Point, radius float64) (Touch, bool) {
	for ci, c := range centers {
		for fi, f := range fingers {
			d := Distance(c, f)
			if d < radius {
				return Touch{
					Tracker:  ci,
					Center:   c,
					Finger:   fi,
					Point:    f,
					Distance: d,
				}, true
			}
		}
	}
	return Touch{}, false
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
