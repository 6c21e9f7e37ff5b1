// Package registry binds WebSocket session ids to authenticated principals.
package registry

import (
	"sync"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
)

// SessionRegistry is a concurrency-safe map of session id to principal.
// An entry exists only while its connection is authenticated and open.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionPrincipal
	closed   bool
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]domain.SessionPrincipal)}
}

// Put binds p to p.SessionID, replacing any previous binding. Put after
// Close is ignored.
func (r *SessionRegistry) Put(p domain.SessionPrincipal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.sessions[p.SessionID] = p
}

func (r *SessionRegistry) Get(sessionID string) (domain.SessionPrincipal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.sessions[sessionID]
	return p, ok
}

// Remove drops the binding. Removing an unknown session is a no-op.
func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close drops every binding and rejects further puts.
func (r *SessionRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.sessions = make(map[string]domain.SessionPrincipal)
	return nil
}
