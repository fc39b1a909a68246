package store

import (
	"sync"
)

// Hub tracks live subscriptions per collection and wakes them on change
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[*Subscription]struct{}
	versions map[string]uint64
}

func NewHub() *Hub {
	return &Hub{
		subs:     make(map[string]map[*Subscription]struct{}),
		versions: make(map[string]uint64),
	}
}

// Notify bumps the collection version and wakes every subscription on it
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	h.versions[collection]++
	subs := make([]*Subscription, 0, len(h.subs[collection]))
	for s := range h.subs[collection] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.wake()
	}
}

// Version returns the current change counter for a collection
func (h *Hub) Version(collection string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.versions[collection]
}

// Count returns the number of live subscriptions on a collection
func (h *Hub) Count(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}

func (h *Hub) add(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[s.query.Collection]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[s.query.Collection] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[s.query.Collection]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.query.Collection)
	}
}
