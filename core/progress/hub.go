// Package progress fans a conversion run's progress out to WebSocket
// subscribers (a dashboard, a CLI --watch flag) without the pipeline
// orchestrator knowing anything about WebSockets: the orchestrator only
// calls the Reporter interface.
package progress

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is one progress event broadcast to subscribers.
type Message struct {
	Type      string  `json:"type"` // "progress", "complete", "error"
	Phase     string  `json:"phase"`
	Fraction  float64 `json:"fraction"` // 0.0-1.0
	Message   string  `json:"message,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Reporter is the interface the pipeline orchestrator reports through.
// A Hub implements it directly; callers that don't want a WebSocket
// feed pass a no-op or test implementation instead.
type Reporter interface {
	Report(phase string, fraction float64)
}

// client is one connected WebSocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected subscribers for a single run and
// broadcasts progress messages to all of them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewHub returns a Hub with its internal loop not yet started; call Run
// in its own goroutine before accepting connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run drives client registration and message fan-out until ctx-free
// shutdown (the hub has no explicit stop; callers run it for the
// process lifetime of a --watch session).
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case data := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Report implements Reporter: it broadcasts a progress message to every
// connected subscriber. Never blocks the caller — a full broadcast
// channel drops the message rather than stall the pipeline.
func (h *Hub) Report(phase string, fraction float64) {
	h.emit(Message{Type: "progress", Phase: phase, Fraction: fraction, Timestamp: now()})
}

// Complete broadcasts a terminal success message.
func (h *Hub) Complete(message string) {
	h.emit(Message{Type: "complete", Fraction: 1.0, Message: message, Timestamp: now()})
}

// Fail broadcasts a terminal error message.
func (h *Hub) Fail(phase, message string) {
	h.emit(Message{Type: "error", Phase: phase, Message: message, Timestamp: now()})
}

func (h *Hub) emit(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("progress: failed to marshal message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("progress: broadcast channel full, dropping message")
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// connection as a subscriber. Mount at the watch_addr the caller
// configured.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("progress: websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.register <- c
	go c.writePump()
	go c.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }
