package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the live sessions of a process, keyed by ID.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions share deps.
func NewManager(deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// New starts a session with a fresh ID.
func (m *Manager) New() *Session {
	s := New(uuid.New().String(), m.deps)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.deps.Logger.Debug("session started", zap.String("session", s.ID))
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, starting a new one when id is
// empty or unknown. created reports whether a new session was started.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.New(), true
}

// End discards a session and its transient log.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.deps.Logger.Debug("session ended", zap.String("session", id))
	}
	return ok
}

// EndIdle discards sessions unused for longer than maxIdle and returns how
// many were removed.
func (m *Manager) EndIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
