package detector

import (
	"image/color"

	"gocv.io/x/gocv"
)

var (
	connectionColor = color.RGBA{R: 255, G: 255, B: 255}
	landmarkColor   = color.RGBA{R: 255, G: 0, B: 0}
)

// DrawLandmarks draws the hand skeleton onto frame in place.
func DrawLandmarks(frame *gocv.Mat, hand *HandLandmarks) {
	if frame == nil || frame.Empty() || hand == nil {
		return
	}

	w, h := frame.Cols(), frame.Rows()
	for _, c := range HandConnections {
		gocv.Line(frame, hand.Pixel(c[0], w, h), hand.Pixel(c[1], w, h), connectionColor, 2)
	}
	for i := 0; i < NumLandmarks; i++ {
		gocv.Circle(frame, hand.Pixel(i, w, h), 4, landmarkColor, -1)
	}
}
