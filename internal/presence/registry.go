package presence

import (
	"sync"
)

// Registry is the single source of truth for which username is live on which
// connection. It owns the connectionID<->username mapping and nothing else;
// it never emits events.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]string // connectionID -> username
	byUser map[string]string // username -> connectionID
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]string),
		byUser: make(map[string]string),
	}
}

// Register binds a connection to a username. A username has at most one live
// session: if it is already bound elsewhere, the prior binding is dropped and
// its connection ID returned so the caller can close the orphaned transport.
func (r *Registry) Register(connID, username string) (prevConnID string, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byUser[username]; ok && prev != connID {
		delete(r.byConn, prev)
		prevConnID, replaced = prev, true
	}
	// A connection switching identities frees its old username too.
	if prevUser, ok := r.byConn[connID]; ok && prevUser != username {
		delete(r.byUser, prevUser)
	}
	r.byConn[connID] = username
	r.byUser[username] = connID
	return prevConnID, replaced
}

// Resolve returns the live connection ID for a username.
func (r *Registry) Resolve(username string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[username]
	return id, ok
}

// Username returns the identity bound to a connection, if any.
func (r *Registry) Username(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byConn[connID]
	return u, ok
}

// Unregister removes the mapping for a connection. Idempotent.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byConn[connID]; ok {
		delete(r.byConn, connID)
		// Only clear the user side if it still points at this connection;
		// a newer login may already have rebound the username.
		if r.byUser[u] == connID {
			delete(r.byUser, u)
		}
	}
}

// Online returns a snapshot of all usernames with a live session.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}
