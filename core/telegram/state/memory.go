package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory Store for development and single-instance deployments.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Load returns a copy of the user's session so callers cannot mutate shared state.
func (m *MemoryStore) Load(_ context.Context, userID int64) (*Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sess, ok := m.sessions[userID]; ok {
		return sess.clone(), true, nil
	}
	return nil, false, nil
}

// Save stores a copy of sess and stamps its update time.
func (m *MemoryStore) Save(_ context.Context, userID int64, sess *Session) error {
	if sess == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := sess.clone()
	stored.UpdatedAt = m.now()
	m.sessions[userID] = stored
	return nil
}

// Delete removes the entire session for a user.
func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// Sweep drops sessions not touched for longer than maxIdle and returns how many were removed.
func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
