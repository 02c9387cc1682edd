// Package server provides the HTTP server that exposes the handtouch pipeline
// to external controllers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/handtouch/internal/server/api"
	"github.com/ayusman/handtouch/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  api.Pipeline
	// Touches is the hub fed by the event controller. Optional.
	Touches *TouchHub
	// MQTT reports broker health on /api/health. Optional.
	MQTT BrokerStatus
}

// BrokerStatus is implemented by emitter.MQTTEmitter.
type BrokerStatus interface {
	Connected() bool
	Stats() (published, failed uint64)
}

type brokerHealth struct {
	Connected bool   `json:"connected"`
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
}

// Server represents the HTTP server for the handtouch application.
type Server struct {
	config   Config
	mux      *http.ServeMux
	start    time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		stopCh: make(chan struct{}),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		s.mux.Handle("/api/events", api.NewEventsHandler(s.config.Store))
	}

	if s.config.Pipeline != nil {
		s.mux.Handle("/api/trackers", api.NewTrackersHandler(s.config.Pipeline))
		s.mux.Handle("/api/results", api.NewResultsHandler(s.config.Pipeline))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Pipeline))
		s.mux.Handle("/api/landmarks", NewLandmarksHandler(s.config.Pipeline, s.stopCh))
	}

	if s.config.Touches != nil {
		s.mux.Handle("/api/touches", s.config.Touches)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.config.Pipeline != nil {
		response["pipeline"] = s.config.Pipeline.Stats()
	}
	if s.config.MQTT != nil {
		published, failed := s.config.MQTT.Stats()
		response["mqtt"] = brokerHealth{
			Connected: s.config.MQTT.Connected(),
			Published: published,
			Failed:    failed,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address and shuts it
// down when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops background broadcasters.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}
