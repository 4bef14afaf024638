package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darkwire-games/darkwire/game/engine"
)

// ErrSessionNotFound means the requested session id is not registered.
var ErrSessionNotFound = errors.New("session not found")

// Session pairs one engine with the lock serializing access to it.
type Session struct {
	ID             uuid.UUID
	Engine         *engine.Engine
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// With runs fn with the session lock held. Every engine operation and its
// broadcast side effects go through here so the session's state transitions
// stay atomic with respect to other requests.
func (s *Session) With(fn func(e *engine.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastAccessedAt = time.Now()
	fn(s.Engine)
}

// Manager is the process-wide session registry, created at startup and torn
// down at shutdown. There are no ambient statics; every caller holds a
// reference.
type Manager struct {
	catalog *engine.Catalog

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a registry instantiating sessions from the given
// catalog.
func NewManager(catalog *engine.Catalog) *Manager {
	return &Manager{
		catalog:  catalog,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Activate resolves an activation request to a session. The zero id mints a
// fresh random id; an unknown id creates a session under that id; a live id
// joins the existing session.
func (m *Manager) Activate(id uuid.UUID) *Session {
	if id == uuid.Nil {
		id = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}
	now := time.Now()
	s := &Session{
		ID:             id,
		Engine:         engine.New(id, m.catalog, now.UnixNano()),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[id] = s
	log.Printf("session: created %s", id)
	return s
}

// Get retrieves a live session.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Destroy removes a session from the registry. Called once the session's
// last user has left via an explicit end-game request; sessions are never
// garbage-collected implicitly.
func (m *Manager) Destroy(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		log.Printf("session: destroyed %s", id)
	}
}

// List returns every live session.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
