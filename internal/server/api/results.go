package api

import "net/http"

// ResultsHandler serves the latest hand landmark result.
type ResultsHandler struct {
	pipeline Pipeline
}

// NewResultsHandler creates a new ResultsHandler for the given pipeline.
func NewResultsHandler(p Pipeline) *ResultsHandler {
	return &ResultsHandler{pipeline: p}
}

// ServeHTTP handles GET /api/results. It answers 204 until the first
// inference completes.
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.pipeline.Results()
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
