package realtime

import (
	"sort"
	"sync"
)

// Conn is a live connection handle as seen by the hub.
type Conn interface {
	// ID is unique per physical connection.
	ID() string
	// Send queues an encoded frame without blocking. It reports false when
	// the frame was dropped (connection closed or its buffer full).
	Send(frame []byte) bool
}

// Registry maps each user to their single active connection. The latest
// registration wins.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]Conn)}
}

// Register maps userID to c and returns the connection it displaced, if any.
// Re-registering the same connection displaces nothing.
func (r *Registry) Register(userID string, c Conn) (displaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byUser[userID]; ok && prev.ID() != c.ID() {
		displaced = prev
	}
	r.byUser[userID] = c
	sessionsOnline.Set(float64(len(r.byUser)))
	return displaced
}

// Unregister removes userID only while it still maps to c. It reports whether
// an entry was removed; a stale handle is a no-op.
func (r *Registry) Unregister(userID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byUser[userID]
	if !ok || cur.ID() != c.ID() {
		return false
	}
	delete(r.byUser, userID)
	sessionsOnline.Set(float64(len(r.byUser)))
	return true
}

// Lookup returns the active connection for userID.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// ListOnline returns the ids of all registered users in ascending order.
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
