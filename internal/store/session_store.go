package store

import (
	"sync"

	"physitutor/internal/model"
)

// SessionStore is the single authority for live session state. Mutations on
// the same session are mutually exclusive; sessions do not block each other.
// Blocking calls (the AI collaborator) must never run inside Update — callers
// snapshot, call out, then re-enter Update and re-validate.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu    sync.Mutex
	state *model.SessionState
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

// Put registers a freshly created session.
func (s *SessionStore) Put(state *model.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.SessionID] = &sessionEntry{state: state}
}

// Get returns a snapshot of the session state, or false if unknown. The
// snapshot is a copy: it stays coherent but may be stale by the time the
// caller uses it.
func (s *SessionStore) Get(sessionID string) (*model.SessionState, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.Clone(), true
}

// Update applies fn to the live session state under the per-session lock.
// If fn returns an error the error is passed through; fn must not mutate
// before deciding to fail. Returns ErrSessionNotFound for unknown sessions.
func (s *SessionStore) Update(sessionID string, fn func(*model.SessionState) error) error {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return model.ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.state)
}

// Delete removes a session and returns its final state.
func (s *SessionStore) Delete(sessionID string) (*model.SessionState, bool) {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state, true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
