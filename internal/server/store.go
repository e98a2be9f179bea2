package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/safdarjung/resume-interview/internal/interview"
)

var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	mu      sync.Mutex
	session *interview.Session
}

// Store keeps interview sessions in memory. Calls on one session are
// serialised; different sessions never block each other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// Create registers the session built by newSession under a fresh id.
func (s *Store) Create(newSession func(id string) *interview.Session) string {
	id := uuid.NewString()
	e := &entry{session: newSession(id)}

	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()

	return id
}

// With runs fn while holding the lock of the session identified by id.
func (s *Store) With(id string, fn func(*interview.Session) error) error {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.session)
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
