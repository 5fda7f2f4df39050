package store

import (
	"context"
	"sort"
	"sync"

	"domus/internal/tenancy/models"
	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// InMemoryRequestStore keeps verification requests in a map.
type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]models.VerificationRequest
}

func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{requests: make(map[id.RequestID]models.VerificationRequest)}
}

func (s *InMemoryRequestStore) Save(_ context.Context, request *models.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.ID] = *request
	return nil
}

func (s *InMemoryRequestStore) FindByID(_ context.Context, requestID id.RequestID) (*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if request, ok := s.requests[requestID]; ok {
		copied := request
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindPendingByTenant returns the tenant's pending request if one exists.
func (s *InMemoryRequestStore) FindPendingByTenant(_ context.Context, tenantID id.UserID) (*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, request := range s.requests {
		if request.TenantID == tenantID && request.Status == models.RequestStatusPending {
			copied := request
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryRequestStore) ListByLandlord(_ context.Context, landlordID id.UserID) ([]*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VerificationRequest
	for _, request := range s.requests {
		if request.LandlordID == landlordID {
			copied := request
			out = append(out, &copied)
		}
	}
	sortRequests(out)
	return out, nil
}

func (s *InMemoryRequestStore) ListByTenant(_ context.Context, tenantID id.UserID) ([]*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VerificationRequest
	for _, request := range s.requests {
		if request.TenantID == tenantID {
			copied := request
			out = append(out, &copied)
		}
	}
	sortRequests(out)
	return out, nil
}

func sortRequests(requests []*models.VerificationRequest) {
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.Before(requests[j].SubmittedAt)
	})
}

// InMemoryStayStore keeps tenancy records in a map.
type InMemoryStayStore struct {
	mu    sync.RWMutex
	stays map[id.StayID]models.TenantStay
}

func NewInMemoryStayStore() *InMemoryStayStore {
	return &InMemoryStayStore{stays: make(map[id.StayID]models.TenantStay)}
}

func (s *InMemoryStayStore) Save(_ context.Context, stay *models.TenantStay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stays[stay.ID] = *stay
	return nil
}

func (s *InMemoryStayStore) FindByID(_ context.Context, stayID id.StayID) (*models.TenantStay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stay, ok := s.stays[stayID]; ok {
		copied := stay
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindActiveByTenant returns the tenant's ACTIVE stay if one exists.
func (s *InMemoryStayStore) FindActiveByTenant(_ context.Context, tenantID id.UserID) (*models.TenantStay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stay := range s.stays {
		if stay.TenantID == tenantID && stay.Status == models.StayStatusActive {
			copied := stay
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStayStore) ListByTenant(_ context.Context, tenantID id.UserID) ([]*models.TenantStay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TenantStay
	for _, stay := range s.stays {
		if stay.TenantID == tenantID {
			copied := stay
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinDate.Before(out[j].JoinDate) })
	return out, nil
}
