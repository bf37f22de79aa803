package realtime

import (
	"codecollab/internal/platform/metrics"
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client serializes writes to one connection; gorilla allows a single writer.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks the websocket clients of each coding session on this instance.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]*client // session ID -> connected clients
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]*client)}
}

func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*websocket.Conn]*client)
	}
	h.clients[sessionID][conn] = &client{conn: conn}
	h.mu.Unlock()
	metrics.WebsocketClients.Inc()
}

func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sessionID, conn)
}

func (h *Hub) removeLocked(sessionID string, conn *websocket.Conn) {
	clients, exists := h.clients[sessionID]
	if !exists || clients[conn] == nil {
		return
	}
	delete(clients, conn)
	if len(clients) == 0 {
		delete(h.clients, sessionID)
	}
	metrics.WebsocketClients.Dec()
}

func (h *Hub) ClientCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Broadcast writes event to every client of its session. Writes happen outside the hub
// lock, so a slow client only delays its own session. Clients that fail the write are
// closed and dropped.
func (h *Hub) Broadcast(event SessionEvent) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients[event.SessionID]))
	for _, c := range h.clients[event.SessionID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	var failed []*client
	for _, c := range targets {
		if err := c.writeJSON(event); err != nil {
			log.Printf("WARN: WebSocket write error for session %s: %v", event.SessionID, err)
			failed = append(failed, c)
		}
	}
	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range failed {
		c.conn.Close()
		h.removeLocked(event.SessionID, c.conn)
	}
}

// Publish delivers to local clients only. It lets the hub act as the broadcaster when
// a single instance runs without Redis.
func (h *Hub) Publish(_ context.Context, event SessionEvent) error {
	h.Broadcast(event)
	return nil
}

// ServeSession upgrades the request and keeps the client registered until it disconnects.
// Clients only listen; anything they send is discarded.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN: WebSocket upgrade failed for session %s: %v", sessionID, err)
		return
	}
	h.Register(sessionID, conn)

	go func() {
		defer func() {
			h.Unregister(sessionID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clients := range h.clients {
		for conn := range clients {
			conn.Close()
			h.removeLocked(sessionID, conn)
		}
	}
}
