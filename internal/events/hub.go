package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/edgeboard/internal/metrics"
)

const broadcastBufferSize = 1000

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	totalMessages int64
	metricsMu     sync.Mutex

	logger *logrus.Entry
}

// NewHub creates a new Hub instance
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.WithField("component", "events"),
	}
}

// Run starts the hub's main loop and blocks until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Event hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues an event for every client. Events are dropped when the
// buffer is full.
func (h *Hub) Broadcast(event Event) bool {
	select {
	case h.broadcast <- event:
		return true
	default:
		h.logger.WithField("type", event.Type).Warn("Broadcast buffer full, dropping event")
		return false
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// MessagesSent returns the number of events delivered to at least one client
func (h *Hub) MessagesSent() int64 {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	return h.totalMessages
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.clientsMu.Unlock()

	metrics.UpdateWebsocketClients(count)
	h.logger.WithFields(logrus.Fields{"client_id": c.ID, "clients": count}).Debug("Client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.Send)
	}
	count := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		metrics.UpdateWebsocketClients(count)
		h.logger.WithFields(logrus.Fields{"client_id": c.ID, "clients": count}).Debug("Client disconnected")
	}
}

func (h *Hub) broadcastEvent(event Event) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.TrySend(event) {
			sent++
			continue
		}
		h.logger.WithField("client_id", c.ID).Warn("Client buffer full, disconnecting")
		h.unregisterClient(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
	metrics.RecordEventPublished(event.Type)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.WithField("clients", len(h.clients)).Info("Shutting down event hub")
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
	metrics.UpdateWebsocketClients(0)
}
