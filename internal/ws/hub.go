package ws

import (
	"sync"
)

// Hub keeps the live connection table, keyed by connection ID. Which username
// sits on which connection is the presence registry's business; the hub only
// knows transports.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Sink
}

func NewHub() *Hub { return &Hub{conns: make(map[string]Sink)} }

func (h *Hub) Add(connID string, s Sink) {
	h.mu.Lock()
	h.conns[connID] = s
	h.mu.Unlock()
}

func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
}

func (h *Hub) Get(connID string) (Sink, bool) {
	h.mu.RLock()
	s, ok := h.conns[connID]
	h.mu.RUnlock()
	return s, ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
