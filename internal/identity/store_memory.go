package identity

import (
	"context"
	"sync"

	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// InMemoryStore keeps user records in a map for tests and single-node runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[id.UserID]User)}
}

func (s *InMemoryStore) Save(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		copied := user
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
