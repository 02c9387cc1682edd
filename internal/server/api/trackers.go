package api

import (
	"encoding/json"
	"image"
	"net/http"
)

// TrackersHandler handles HTTP requests for the active tracker set.
type TrackersHandler struct {
	pipeline Pipeline
}

// NewTrackersHandler creates a new TrackersHandler for the given pipeline.
func NewTrackersHandler(p Pipeline) *TrackersHandler {
	return &TrackersHandler{pipeline: p}
}

// ServeHTTP implements the http.Handler interface.
func (h *TrackersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request types

type createTrackersRequest struct {
	Points [][2]int `json:"points"`
}

// Response types

type trackerResponse struct {
	ID     string `json:"id"`
	Box    [4]int `json:"box"` // x, y, width, height
	Center [2]int `json:"center"`
}

type listTrackersResponse struct {
	Trackers []trackerResponse `json:"trackers"`
}

type createTrackersResponse struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
}

// list handles GET /api/trackers
func (h *TrackersHandler) list(w http.ResponseWriter, r *http.Request) {
	trackers := h.pipeline.Trackers()

	response := listTrackersResponse{
		Trackers: make([]trackerResponse, 0, len(trackers)),
	}
	for _, t := range trackers {
		c := t.Center()
		response.Trackers = append(response.Trackers, trackerResponse{
			ID:     t.ID.String(),
			Box:    [4]int{t.Box.Min.X, t.Box.Min.Y, t.Box.Dx(), t.Box.Dy()},
			Center: [2]int{c.X, c.Y},
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/trackers. The new trackers are initialised against
// the most recent frame.
func (h *TrackersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTrackersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	points := make([]image.Point, 0, len(req.Points))
	for _, p := range req.Points {
		if p[0] < 0 || p[1] < 0 {
			writeError(w, http.StatusBadRequest, "Points must be non-negative")
			return
		}
		points = append(points, image.Point{X: p[0], Y: p[1]})
	}

	frame := h.pipeline.Frame()
	if frame == nil {
		writeError(w, http.StatusConflict, "No frame captured yet")
		return
	}
	defer frame.Close()

	created := h.pipeline.CreateTrackers(points, frame)

	writeJSON(w, http.StatusCreated, createTrackersResponse{
		Requested: len(points),
		Created:   created,
	})
}
