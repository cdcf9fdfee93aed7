// Package realtime pushes bus events to browsers over server-sent events.
package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizmind/internal/events"
	"github.com/abhisek/quizmind/internal/logger"
)

const clientBuffer = 10

// Client is one connected SSE stream.
type Client struct {
	ID       uuid.UUID
	Outbound chan events.Message
	done     chan struct{}
	once     sync.Once
}

// Hub fans messages out to connected clients. A client whose buffer is
// full misses the message; the broadcaster never blocks.
type Hub struct {
	log       *logger.Logger
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:       log.With("component", "SSEHub"),
		heartbeat: 15 * time.Second,
		clients:   make(map[*Client]struct{}),
	}
}

// AddClient registers a new client.
func (h *Hub) AddClient() *Client {
	c := &Client{
		ID:       uuid.New(),
		Outbound: make(chan events.Message, clientBuffer),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("SSE client connected", "client_id", c.ID)
	return c
}

// RemoveClient unregisters c and stops its stream.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	h.log.Debug("SSE client disconnected", "client_id", c.ID)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg on every client.
func (h *Hub) Broadcast(msg events.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Outbound <- msg:
		default:
			h.log.Warn("dropping SSE message; outbound buffer full", "client_id", c.ID, "event", msg.Event)
		}
	}
}

// Serve streams c's messages to w until the request ends or c is removed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, c *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-c.Outbound:
			data, err := json.Marshal(msg.Data)
			if err != nil {
				h.log.Warn("failed to marshal SSE message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
			flusher.Flush()
		}
	}
}
