package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/treescope/treescope/pkg/scene"
	"github.com/treescope/treescope/pkg/tree"
)

// sessionTTL is how long an explorer session survives without events.
const sessionTTL = 30 * time.Minute

// session is one remote explorer: a scene controller plus the lock that
// serializes events onto it. The controller itself is single-threaded.
type session struct {
	mu       sync.Mutex
	ctl      *scene.Controller
	lastSeen time.Time
}

// sessionManager owns all live sessions keyed by uuid.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[string]*session)}
}

// create starts a new session over t and returns its id. Expired
// sessions are pruned here so the map cannot grow without bound.
func (m *sessionManager) create(t *tree.Tree) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > sessionTTL {
			delete(m.sessions, id)
		}
	}

	id := uuid.NewString()
	m.sessions[id] = &session{
		ctl:      scene.NewController(t),
		lastSeen: now,
	}
	return id
}

// get returns the session for id, or nil when unknown or expired.
func (m *sessionManager) get(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if time.Since(s.lastSeen) > sessionTTL {
		delete(m.sessions, id)
		return nil
	}
	s.lastSeen = time.Now()
	return s
}

// drop removes a session. Dropping an unknown id is a no-op.
func (m *sessionManager) drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// with runs fn while holding the session lock.
func (s *session) with(fn func(ctl *scene.Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ctl)
}
