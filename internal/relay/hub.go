// Package relay routes live frames between connections of signed-in users.
package relay

import "sync"

// Hub groups peers by user id. A user may hold several connections at once.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Peer]struct{}
}

// NewHub constructs a hub with no peers.
func NewHub() *Hub {
	return &Hub{users: make(map[string]map[*Peer]struct{})}
}

// Register adds a peer. Returns true if newly added.
func (h *Hub) Register(p *Peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[p.UserID]
	if !ok {
		set = make(map[*Peer]struct{})
		h.users[p.UserID] = set
	}
	if _, exists := set[p]; exists {
		return false
	}
	set[p] = struct{}{}
	return true
}

// Unregister removes a peer. Returns true if removed.
func (h *Hub) Unregister(p *Peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[p.UserID]
	if !ok {
		return false
	}
	if _, exists := set[p]; !exists {
		return false
	}
	delete(set, p)
	if len(set) == 0 {
		delete(h.users, p.UserID)
	}
	return true
}

// Deliver queues frame on every connection of userID except skip, which
// may be nil. It returns how many peers accepted the frame.
func (h *Hub) Deliver(userID string, frame any, skip *Peer) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for p := range h.users[userID] {
		if p == skip {
			continue
		}
		select {
		case p.Outbox <- frame:
			delivered++
		default:
			// Drop if slow consumer.
		}
	}
	return delivered
}

// Online reports whether userID has at least one connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}
