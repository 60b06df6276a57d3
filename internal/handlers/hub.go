package handlers

import (
	"context"
	"sync"

	"heating_curve/internal/logger"
	"heating_curve/internal/models"
)

const clientBuffer = 8

// Hub fans published payloads out to every connected websocket client.
// A client that cannot keep up misses payloads; it never blocks the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	log     *logger.Logger
}

type wsClient struct {
	send chan wsEnvelope
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{clients: make(map[*wsClient]struct{}), log: log}
}

func (h *Hub) register() *wsClient {
	c := &wsClient{send: make(chan wsEnvelope, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues p for every client.
func (h *Hub) Publish(_ context.Context, p models.Payload) error {
	env := wsEnvelope{Type: msgState, Data: p}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- env:
		default:
			if h.log != nil {
				h.log.Warnw("ws_client_slow", "dropped", msgState)
			}
		}
	}
	return nil
}
