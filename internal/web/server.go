// Package web exposes the feed over HTTP: a JSON status endpoint for polling
// and a websocket endpoint that pushes each emitted snapshot to connected
// clients. It consumes feed events; it takes no part in parsing.
package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nmealink/internal/feed"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// clientSendBuffer bounds the per-client snapshot queue. Snapshots are
// latest-value, so a client that falls behind just skips intermediate ones.
const clientSendBuffer = 4

// Hub retains the latest feed state for /api/status and fans live snapshots
// out to websocket subscribers. New subscribers immediately receive the most
// recent snapshot, if any. Each subscriber gets its own buffered send channel
// and writer goroutine, so a client that stops reading never stalls the hub.
type Hub struct {
	// Stats, when set, is polled for the status response.
	Stats func() feed.Stats

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	start   time.Time
	status  feed.Status
	lastErr string
	fix     feed.AggregatedFix
	haveFix bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		start:   time.Now().UTC(),
		status:  feed.StatusDisconnected,
	}
}

// HandleEvent folds one feed event into the hub. DataEvents are also
// broadcast to websocket subscribers.
func (h *Hub) HandleEvent(ev feed.Event) {
	switch e := ev.(type) {
	case feed.StatusEvent:
		h.mu.Lock()
		h.status = e.Status
		h.mu.Unlock()
	case feed.ErrorEvent:
		h.mu.Lock()
		h.lastErr = e.Err.Error()
		h.mu.Unlock()
	case feed.DataEvent:
		h.mu.Lock()
		h.fix = e.Fix
		h.haveFix = true
		h.mu.Unlock()
		h.broadcast(e.Fix)
	}
}

type statusResponse struct {
	StartUTC  string              `json:"start_utc"`
	UptimeSec float64             `json:"uptime_sec"`
	Status    feed.Status         `json:"status"`
	LastError string              `json:"last_error,omitempty"`
	Stats     *feed.Stats         `json:"stats,omitempty"`
	Fix       *feed.AggregatedFix `json:"fix,omitempty"`
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		h.mu.RLock()
		resp := statusResponse{
			StartUTC:  h.start.Format(time.RFC3339Nano),
			UptimeSec: time.Since(h.start).Seconds(),
			Status:    h.status,
			LastError: h.lastErr,
		}
		if h.haveFix {
			fix := h.fix
			resp.Fix = &fix
		}
		h.mu.RUnlock()

		if h.Stats != nil {
			stats := h.Stats()
			resp.Stats = &stats
		}

		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	mux.HandleFunc("/api/live", h.handleLive)

	return mux
}

// handleLive upgrades to websocket and registers the client for snapshot
// broadcasts.
func (h *Hub) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	send := make(chan []byte, clientSendBuffer)

	// Seed and register under one lock so the seed lands before any later
	// broadcast for this client.
	h.mu.Lock()
	h.clients[conn] = send
	if h.haveFix {
		if b, err := json.Marshal(h.fix); err == nil {
			send <- b
		}
	}
	h.mu.Unlock()

	// The writer goroutine owns all writes on this conn. A failed write
	// evicts the client.
	go func() {
		for b := range send {
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.drop(conn)
				return
			}
		}
	}()

	// Reader loop only to observe the close; clients are not expected to
	// send anything.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.drop(conn)
	}()
}

// drop unregisters a client and stops its writer by closing the send channel.
// Safe to call from both the reader and writer goroutines.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	if ok {
		if err := conn.Close(); err != nil {
			log.Printf("web: close websocket: %v", err)
		}
	}
}

// broadcast hands the snapshot to each client's writer without blocking. A
// client whose queue is full misses this snapshot; a later one follows. The
// read lock holds off drop, so a send channel cannot close mid-send.
func (h *Hub) broadcast(fix feed.AggregatedFix) {
	b, err := json.Marshal(fix)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- b:
		default:
		}
	}
}
