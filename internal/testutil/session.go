package testutil

import (
	"sync"

	"alsun-go/internal/model"
)

// MemorySessionStore keeps the persisted session in memory. It survives
// across services within one test, standing in for the SQLite store.
type MemorySessionStore struct {
	mu    sync.Mutex
	user  model.User
	saved bool

	SaveErr  error
	LoadErr  error
	ClearErr error
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) SaveSession(user model.User) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.saved = true
	return nil
}

func (s *MemorySessionStore) LoadSession() (model.User, bool, error) {
	if s.LoadErr != nil {
		return model.User{}, false, s.LoadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.saved, nil
}

func (s *MemorySessionStore) ClearSession() error {
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = model.User{}
	s.saved = false
	return nil
}
