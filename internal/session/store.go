package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is the registry of live sessions. At most one session is active at a
// time; the active id is the only pointer into the registry, never a second
// copy of the session.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	activeID uuid.UUID // uuid.Nil means no active session
}

// NewStore creates an empty session registry
func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

// Add registers a session without activating it
func (st *Store) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get returns the session with the given id
func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Active returns the currently active session, if any
func (st *Store) Active() (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.activeID == uuid.Nil {
		return nil, false
	}
	s, ok := st.sessions[st.activeID]
	return s, ok
}

// ActiveID returns the active session id, or uuid.Nil
func (st *Store) ActiveID() uuid.UUID {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.activeID
}

// SetActive marks the given session as active. Returns false when the id is
// not registered, leaving the previous active session in place.
func (st *Store) SetActive(id uuid.UUID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	st.activeID = id
	return true
}

// List returns all sessions ordered by most recent activity first
func (st *Store) List() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt().After(out[j].LastActivityAt())
	})
	return out
}

// Len returns how many sessions are registered
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
