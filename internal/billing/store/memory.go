package store

import (
	"context"
	"sort"
	"sync"

	"domus/internal/billing/models"
	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// InMemoryStore keeps bills in a map.
type InMemoryStore struct {
	mu    sync.RWMutex
	bills map[id.BillID]models.Bill
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bills: make(map[id.BillID]models.Bill)}
}

func (s *InMemoryStore) Save(_ context.Context, bill *models.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills[bill.ID] = *bill
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, billID id.BillID) (*models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if bill, ok := s.bills[billID]; ok {
		copied := bill
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, billID id.BillID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[billID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bills, billID)
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.UserID) ([]*models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Bill
	for _, bill := range s.bills {
		if bill.TenantID == tenantID {
			copied := bill
			out = append(out, &copied)
		}
	}
	sortBills(out)
	return out, nil
}

func (s *InMemoryStore) ListByLandlord(_ context.Context, landlordID id.UserID) ([]*models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Bill
	for _, bill := range s.bills {
		if bill.LandlordID == landlordID {
			copied := bill
			out = append(out, &copied)
		}
	}
	sortBills(out)
	return out, nil
}

func sortBills(bills []*models.Bill) {
	sort.Slice(bills, func(i, j int) bool {
		return bills[i].CreatedAt.Before(bills[j].CreatedAt)
	})
}
