package ledger

import (
	"context"
	"sync"

	id "domus/pkg/domain"
)

// InMemoryStore keeps per-tenant entry slices; append order is list order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.UserID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.UserID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TenantID] = append(s.entries[entry.TenantID], entry)
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.UserID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[tenantID]...), nil
}
