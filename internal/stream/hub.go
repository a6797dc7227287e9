package stream

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub manages the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	log        *logrus.Entry
}

// NewHub creates a new Hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
		log:        logger.WithField("component", "hub"),
	}
}

// Run starts the hub's event loop. It must be run in a separate goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")
	defer h.log.Info("hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAllConnections()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			client.log.Debug("client registered")
		case client := <-h.unregister:
			h.remove(client)
			client.log.Debug("client unregistered")
		case payload := <-h.broadcast:
			h.broadcastPayload(payload)
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client if it is still registered.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a payload to all connected clients.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) {
	select {
	case h.broadcast <- payload:
	case <-h.done:
	case <-ctx.Done():
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastPayload queues the payload on every client. Clients whose queue
// is full are dropped. Must only be called from Run.
func (h *Hub) broadcastPayload(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			client.log.Warn("client send queue full, dropping connection")
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// closeAllConnections closes every client's queue during shutdown; the write
// pumps then send a close frame and hang up.
func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
