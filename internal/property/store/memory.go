package store

import (
	"context"
	"sync"

	"domus/internal/property/models"
	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// InMemory keeps property records and their occupancy counters in a map.
// Adjust performs the clamped read-modify-write under the store lock so
// concurrent increments cannot lose updates.
type InMemory struct {
	mu         sync.RWMutex
	properties map[id.PropertyID]models.Property
}

func NewInMemory() *InMemory {
	return &InMemory{properties: make(map[id.PropertyID]models.Property)}
}

func (s *InMemory) Save(_ context.Context, property *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[property.ID] = *property
	return nil
}

func (s *InMemory) FindByID(_ context.Context, propertyID id.PropertyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if property, ok := s.properties[propertyID]; ok {
		copied := property
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByLandlord(_ context.Context, landlordID id.UserID) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Property
	for _, property := range s.properties {
		if property.LandlordID == landlordID {
			copied := property
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Adjust applies a clamped delta to the occupied counter against the current
// stored value. Returns the new occupied count, the total, and whether the
// clamp fired.
func (s *InMemory) Adjust(_ context.Context, propertyID id.PropertyID, delta int) (occupied, total int, saturated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	property, ok := s.properties[propertyID]
	if !ok {
		return 0, 0, false, sentinel.ErrNotFound
	}

	next := property.OccupiedUnits + delta
	if next > property.TotalUnits {
		next = property.TotalUnits
		saturated = true
	}
	if next < 0 {
		next = 0
		saturated = true
	}
	property.OccupiedUnits = next
	s.properties[propertyID] = property
	return next, property.TotalUnits, saturated, nil
}
