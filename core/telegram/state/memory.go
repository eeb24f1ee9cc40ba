package state

import (
	"maps"
	"sync"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryManager returns a process-local Manager. Sessions are lost on restart.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]Session),
	}
}

// Get returns a copy of the user's session, or an idle one.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return Session{State: StateIdle, TempData: map[string]string{}}
	}
	return Session{State: s.State, TempData: maps.Clone(s.TempData)}
}

// Put replaces the user's session. An idle session with no temp data is
// dropped instead of stored.
func (m *memoryManager) Put(userID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if (s.State == StateIdle || s.State == "") && len(s.TempData) == 0 {
		delete(m.sessions, userID)
		return
	}
	if s.State == "" {
		s.State = StateIdle
	}
	data := maps.Clone(s.TempData)
	if data == nil {
		data = map[string]string{}
	}
	m.sessions[userID] = Session{State: s.State, TempData: data}
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}

// GetState returns the current state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s.State
	}
	return StateIdle
}

// InProgress reports whether the user has a state other than idle.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}
