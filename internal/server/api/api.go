// Package api provides the JSON handlers behind /api.
package api

import (
	"encoding/json"
	"image"
	"net/http"

	"github.com/ayusman/handtouch/internal/app"
	"github.com/ayusman/handtouch/internal/detector"
	"github.com/ayusman/handtouch/internal/tracking"
	"gocv.io/x/gocv"
)

// Pipeline is the part of app.App the API drives.
type Pipeline interface {
	Frame() *gocv.Mat
	Results() *detector.Result
	CreateTrackers(points []image.Point, frame *gocv.Mat) int
	Trackers() []tracking.Tracker
	Stats() app.Stats
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
