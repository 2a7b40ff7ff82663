package app

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

const (
	writeWait = time.Second
	// sendBuffer is how many frames a client may fall behind before new
	// frames are dropped for it.
	sendBuffer = 64
)

// client is one websocket connection with its own writer goroutine.
type client struct {
	conn    *websocket.Conn
	send    chan string
	dropped int
}

// Hub fans text frames out to every connected websocket client. Broadcast
// never waits on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: map[*client]bool{}}
}

// Serve upgrades the request and registers the client until it hangs up.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[monitor] websocket upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan string, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.write(c)
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) write(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.drop(c)
			return
		}
	}
}

// Broadcast queues msg for every client. A client whose queue is full
// misses the frame.
func (h *Hub) Broadcast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			c.dropped++
			if c.dropped == 1 || c.dropped%100 == 0 {
				log.Printf("[monitor] slow websocket client, %d frames dropped", c.dropped)
			}
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.remove(c)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		h.remove(c)
	}
}

// remove unregisters c and stops its writer. h.mu must be held.
func (h *Hub) remove(c *client) {
	delete(h.clients, c)
	close(c.send)
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		log.Printf("[monitor] warning: failed to close websocket: %v", err)
	}
}
