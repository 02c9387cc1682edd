package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/handtouch/internal/server/api"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// writeWait bounds a single websocket write.
const writeWait = time.Second

// clientSet tracks websocket connections and fans messages out to them.
type clientSet struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	// writeMu serialises writers; a connection allows one at a time.
	writeMu sync.Mutex
}

func newClientSet() *clientSet {
	return &clientSet{clients: make(map[*websocket.Conn]bool)}
}

// serve upgrades the request and holds the connection until the client goes away.
func (c *clientSet) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c.add(conn)
	defer c.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *clientSet) add(conn *websocket.Conn) {
	c.mu.Lock()
	c.clients[conn] = true
	c.mu.Unlock()
}

func (c *clientSet) remove(conn *websocket.Conn) {
	c.mu.Lock()
	delete(c.clients, conn)
	c.mu.Unlock()
}

func (c *clientSet) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

// broadcast writes msg to every client. Clients whose write fails are closed
// and dropped.
func (c *clientSet) broadcast(msg []byte) {
	c.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(c.clients))
	for conn := range c.clients {
		conns = append(conns, conn)
	}
	c.mu.RUnlock()

	c.writeMu.Lock()
	var failed []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			failed = append(failed, conn)
		}
	}
	c.writeMu.Unlock()

	for _, conn := range failed {
		c.remove(conn)
		conn.Close()
	}
}

// LandmarksHandler broadcasts the latest hand landmark result via WebSocket.
type LandmarksHandler struct {
	pipeline api.Pipeline
	clients  *clientSet
}

// NewLandmarksHandler creates a LandmarksHandler that broadcasts until stop is closed.
func NewLandmarksHandler(p api.Pipeline, stop <-chan struct{}) *LandmarksHandler {
	h := &LandmarksHandler{
		pipeline: p,
		clients:  newClientSet(),
	}
	go h.broadcast(stop)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.clients.serve(w, r)
}

// broadcast sends the latest result to all connected clients.
func (h *LandmarksHandler) broadcast(stop <-chan struct{}) {
	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if h.clients.len() == 0 {
			continue
		}

		result := h.pipeline.Results()
		if result == nil || result.Sequence == lastSeq {
			continue
		}
		lastSeq = result.Sequence

		msg, err := json.Marshal(map[string]any{
			"result":    result,
			"timestamp": time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}

		h.clients.broadcast(msg)
	}
}

// TouchHub pushes one WebSocket message per touch to every connected client.
type TouchHub struct {
	clients *clientSet
}

// NewTouchHub creates an empty TouchHub.
func NewTouchHub() *TouchHub {
	return &TouchHub{clients: newClientSet()}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *TouchHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.clients.serve(w, r)
}

// Publish sends v as JSON to every connected client.
func (h *TouchHub) Publish(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.clients.broadcast(msg)
	return nil
}

// Clients returns the number of connected clients.
func (h *TouchHub) Clients() int {
	return h.clients.len()
}
