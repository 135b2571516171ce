package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Change feed event types.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Message is one committed change pushed to feed subscribers.
type Message struct {
	// Event is INSERT, UPDATE or DELETE.
	Event string `json:"event"`

	// Table the record belongs to
	Table string `json:"table"`

	// Key is the record primary key
	Key string `json:"key"`

	// Owner is the student id owning the record, empty for staff-only rows
	Owner string `json:"owner,omitempty"`

	// Version increases on every write to the record
	Version int64 `json:"version"`

	// Record is the full record after the write, absent for deletes
	Record json.RawMessage `json:"record,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts changes to the
// clients subscribed to the changed table.
type Hub struct {
	// Registered clients organized by table
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	listenersMu      sync.RWMutex
	messageListeners []*messageListener

	logger zerolog.Logger
}

// messageListener is an in-process consumer. Delivery to it never drops;
// removed unblocks a pending send.
type messageListener struct {
	ch      chan *Message
	removed chan struct{}
}

// NewHub creates a new Hub instance. buffer sizes the inbound broadcast queue.
func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		broadcast:        make(chan *Message, buffer),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		done:             make(chan struct{}),
		clients:          make(map[string]map[*Client]bool),
		messageListeners: []*messageListener{},
		logger:           logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(ctx, message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.table]; !ok {
		h.clients[client.table] = make(map[*Client]bool)
	}
	h.clients[client.table][client] = true

	h.logger.Info().
		Str("table", client.table).
		Str("subject", client.subject).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.table]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.table)
	}
	h.logger.Info().
		Str("table", client.table).
		Str("subject", client.subject).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// broadcastMessage fans a change out to listeners and to every client of the
// table whose owner filter matches.
func (h *Hub) broadcastMessage(ctx context.Context, message *Message) {
	h.notifyMessageListeners(ctx, message)

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("table", message.Table).
			Msg("Failed to marshal change for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[message.Table]
	if !ok {
		return
	}
	delivered := 0
	for client := range clients {
		if !client.accepts(message) {
			continue
		}
		select {
		case client.send <- data:
			delivered++
		default:
			// Slow consumer; it reconnects and re-reads the snapshot.
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("table", message.Table).
		Str("key", message.Key).
		Int("clientCount", delivered).
		Msg("Change broadcasted")
}

// notifyMessageListeners blocks until every listener took the message, was
// removed, or the hub is stopping. Listeners feed state that must converge.
func (h *Hub) notifyMessageListeners(ctx context.Context, message *Message) {
	h.listenersMu.RLock()
	listeners := append([]*messageListener(nil), h.messageListeners...)
	h.listenersMu.RUnlock()

	for _, listener := range listeners {
		select {
		case listener.ch <- message:
		case <-listener.removed:
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast queues a change for delivery. It returns false once the hub has
// stopped.
func (h *Hub) Broadcast(message *Message) bool {
	select {
	case h.broadcast <- message:
		return true
	case <-h.done:
		return false
	}
}

// GetClientsCount returns the number of connected clients for a table
func (h *Hub) GetClientsCount(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[table])
}

// AddMessageListener registers a channel to receive all messages
func (h *Hub) AddMessageListener(listener chan *Message) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	h.messageListeners = append(h.messageListeners, &messageListener{
		ch:      listener,
		removed: make(chan struct{}),
	})
	h.logger.Info().Msg("Added new message listener")
}

// RemoveMessageListener removes a listener from the hub
func (h *Hub) RemoveMessageListener(listener chan *Message) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	for i, l := range h.messageListeners {
		if l.ch == listener {
			close(l.removed)
			h.messageListeners[i] = h.messageListeners[len(h.messageListeners)-1]
			h.messageListeners = h.messageListeners[:len(h.messageListeners)-1]
			h.logger.Info().Msg("Removed message listener")
			break
		}
	}
}
