package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"haneye/internal/ledger"
)

// Event describes websocket payloads emitted when analyses complete or
// feedback is recorded.
type Event struct {
	Type      string         `json:"type"`
	Analysis  *AnalysisDTO   `json:"analysis,omitempty"`
	Feedback  *ledger.Record `json:"feedback,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// EventNotifier tracks active websocket clients and broadcasts events.
type EventNotifier struct {
	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	lastEvent *Event
}

// NewEventNotifier constructs a notifier instance.
func NewEventNotifier() *EventNotifier {
	return &EventNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and returns a client handle. The
// most recent event, if any, is replayed so late joiners see current state.
func (n *EventNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.lastEvent
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client and closes the socket.
func (n *EventNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *EventNotifier) Broadcast(event Event) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	snapshot := event
	n.lastEvent = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// LastEvent returns a copy of the most recently broadcast event.
func (n *EventNotifier) LastEvent() *Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastEvent == nil {
		return nil
	}
	copy := *n.lastEvent
	return &copy
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
