// Package session tracks open diff sessions and the last used branch pair.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Key identifies a diff session by its branch names.
type Key struct {
	Source string
	Target string
}

func (k Key) String() string {
	return fmt.Sprintf("%s..%s", k.Target, k.Source)
}

// Session is one open diff between two branches.
type Session[T any] struct {
	ID    string
	Key   Key
	Value T
}

// Manager is the registry of open sessions. When reuse is on, opening a pair
// that is already open returns the existing session.
type Manager[T any] struct {
	mu       sync.Mutex
	reuse    bool
	sessions []*Session[T]
}

// NewManager returns an empty registry.
func NewManager[T any](reuse bool) *Manager[T] {
	return &Manager[T]{reuse: reuse}
}

// SetReuse toggles reuse of open sessions.
func (m *Manager[T]) SetReuse(reuse bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reuse = reuse
}

// Open returns the session for key, creating it with factory when needed.
// created reports whether factory ran.
func (m *Manager[T]) Open(key Key, factory func(id string) (T, error)) (s *Session[T], created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reuse {
		for _, existing := range m.sessions {
			if existing.Key == key {
				return existing, false, nil
			}
		}
	}

	id := uuid.NewString()
	value, err := factory(id)
	if err != nil {
		return nil, false, fmt.Errorf("open session %s: %w", key, err)
	}
	s = &Session[T]{ID: id, Key: key, Value: value}
	m.sessions = append(m.sessions, s)
	return s, true, nil
}

// Get returns the session with id.
func (m *Manager[T]) Get(id string) (*Session[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Close forgets the session with id and reports whether it was open.
func (m *Manager[T]) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sessions {
		if s.ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the open sessions in the order they were opened.
func (m *Manager[T]) List() []*Session[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Session[T](nil), m.sessions...)
}

// Len returns the number of open sessions.
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
