package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// GenerationEvent is the websocket payload emitted for each completed generation.
type GenerationEvent struct {
	Type       string         `json:"type"`
	RequestID  string         `json:"request_id"`
	Generation *GenerationDTO `json:"generation,omitempty"`
	Message    string         `json:"message,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

const eventGeneration = "generation"

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// GenerationNotifier keeps track of websocket clients and fans out generation events.
type GenerationNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    *GenerationEvent
}

// NewGenerationNotifier constructs a notifier instance.
func NewGenerationNotifier() *GenerationNotifier {
	return &GenerationNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the most recent event to it.
func (n *GenerationNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.last
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the client and closes the socket.
func (n *GenerationNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the event to all registered clients, dropping the ones that fail.
func (n *GenerationNotifier) Broadcast(event GenerationEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	snapshot := event
	n.last = &snapshot
	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// Clients reports how many sockets are attached.
func (n *GenerationNotifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// Last returns a copy of the most recently broadcast event.
func (n *GenerationNotifier) Last() *GenerationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return nil
	}
	last := *n.last
	return &last
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
