package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MessageTypeRevalidate tells a client that cached views of Path are stale
const MessageTypeRevalidate = "revalidate"

// Hub maintains the set of active clients, grouped by the path token they
// subscribed to, and pushes revalidation messages to them.
type Hub struct {
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger zerolog.Logger
}

// Message is the payload pushed to subscribers
type Message struct {
	Type      string    `json:"type"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
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
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.path]; !ok {
		h.clients[client.path] = make(map[*Client]bool)
	}
	h.clients[client.path][client] = true

	h.logger.Debug().
		Str("path", client.path).
		Str("addr", client.remoteAddr).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops client; h.mu must be held for writing
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.path]
	if !ok || !clients[client] {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.path)
	}

	h.logger.Debug().
		Str("path", client.path).
		Str("addr", client.remoteAddr).
		Msg("Client unregistered")
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("path", message.Path).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[message.Path]
	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("path", message.Path).
		Int("clientCount", len(clients)).
		Msg("Revalidation pushed")
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

// Publish queues a revalidation message for subscribers of path. It does not
// block on slow clients; ctx bounds the wait for queue space.
func (h *Hub) Publish(ctx context.Context, path string) error {
	msg := &Message{Type: MessageTypeRevalidate, Path: path, Timestamp: time.Now()}
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetClientsCount returns the number of clients subscribed to path
func (h *Hub) GetClientsCount(path string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[path])
}

// PathStale lets the hub act as a revalidation sink
func (h *Hub) PathStale(ctx context.Context, path string) error {
	return h.Publish(ctx, path)
}
