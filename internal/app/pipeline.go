package app

import (
	"errors"
	"image"
	"log"

	"github.com/ayusman/handtouch/internal/capture"
	"github.com/ayusman/handtouch/internal/detector"
	"github.com/ayusman/handtouch/internal/events"
	"github.com/ayusman/handtouch/internal/smoothing"
	"github.com/ayusman/handtouch/internal/tracking"
	"gocv.io/x/gocv"
)

// fingertips holds the smoothing state for the two touch channels. It is owned
// by the capture goroutine.
type fingertips struct {
	thumb *smoothing.History
	index *smoothing.History
}

// runCapture is the main loop that reads frames from the camera.
//
// Per frame:
// 1. Read a frame (end of stream stops the pipeline)
// 2. Offer a copy to the landmark worker, dropping it if the queue is full
// 3. Fetch the latest landmark result without waiting
// 4. Advance trackers and draw their markers
// 5. If a hand is present, smooth the fingertips and check for a touch
// 6. Publish the annotated frame
func (a *App) runCapture() {
	defer a.releaseCamera()

	log.Println("Capture loop started")
	defer log.Println("Capture loop stopped")

	tips := fingertips{
		thumb: smoothing.NewHistory(a.config.SmoothingWindow),
		index: smoothing.NewHistory(a.config.SmoothingWindow),
	}

	for {
		select {
		case <-a.stopCh:
			return
		default:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Println("Video stream ended, releasing camera")
			} else {
				log.Printf("Error reading frame: %v", err)
			}
			// The worker has nothing left to do either
			a.requestStop()
			return
		}

		a.processFrame(frame, &tips)
	}
}

// processFrame runs one iteration of the capture loop. It takes ownership of
// frame and publishes it as the latest annotated frame.
func (a *App) processFrame(frame *gocv.Mat, tips *fingertips) {
	// The worker gets its own copy so annotation never races inference
	forWorker := frame.Clone()
	if !a.queue.Offer(&forWorker) {
		forWorker.Close()
	}

	result := a.worker.Results()

	centers := a.trackers.Update(*frame, frame)

	if result.HasHand() {
		detector.DrawLandmarks(frame, result.Hand)
		a.checkTouch(centers, result.Hand, frame.Cols(), frame.Rows(), tips)
	}

	a.mu.Lock()
	a.frames++
	a.mu.Unlock()

	a.publishFrame(frame)
}

// checkTouch smooths the fingertips and fires at most one touch event. A touch
// against any tracker clears the whole tracker set.
func (a *App) checkTouch(centers []image.Point, hand *detector.HandLandmarks, width, height int, tips *fingertips) {
	thumbRaw, indexRaw := hand.Fingertips(width, height)
	fingers := []image.Point{
		tips.thumb.Update(thumbRaw),
		tips.index.Update(indexRaw),
	}

	touch, ok := tracking.DetectTouch(centers, fingers, a.config.Geometry.TouchRadius)
	if !ok {
		return
	}

	log.Printf("Touch detected: tracker %d at %v, finger %d at %v (distance %.2f)",
		touch.Tracker, touch.Center, touch.Finger, touch.Point, touch.Distance)

	a.events.Push(events.TouchDetected)
	a.trackers.Clear()

	a.mu.Lock()
	a.touches++
	a.mu.Unlock()
}
