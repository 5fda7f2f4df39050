package notify

import (
	"context"
	"sync"

	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// Store is the persistence contract for notification records.
type Store interface {
	Save(ctx context.Context, notification Notification) error
	ListByUser(ctx context.Context, userID id.UserID, role id.Role) ([]Notification, error)
	MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error
}

// InMemoryStore keeps notification records per user.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[id.UserID][]Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notifications: make(map[id.UserID][]Notification)}
}

func (s *InMemoryStore) Save(_ context.Context, notification Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[notification.UserID] = append(s.notifications[notification.UserID], notification)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, role id.Role) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.notifications[userID] {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, userID id.UserID, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.notifications[userID]
	for i := range records {
		if records[i].ID == notificationID {
			records[i].IsRead = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}
