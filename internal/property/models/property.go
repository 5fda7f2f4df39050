package models

import (
	"time"

	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

// Property is a landlord's rental property with derived occupancy counters.
//
// Invariants:
//   - TotalUnits >= 1 and is fixed after construction
//   - 0 <= OccupiedUnits <= TotalUnits at all times
//   - every ACTIVE stay corresponds to exactly one occupied unit
type Property struct {
	ID            id.PropertyID `json:"id"`
	LandlordID    id.UserID     `json:"landlord_id"`
	Name          string        `json:"name"`
	City          string        `json:"city"`
	TotalUnits    int           `json:"total_units"`
	OccupiedUnits int           `json:"occupied_units"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (p *Property) HasVacancy() bool {
	return p.OccupiedUnits < p.TotalUnits
}

func NewProperty(propertyID id.PropertyID, landlordID id.UserID, name, city string, totalUnits int, now time.Time) (*Property, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "property name cannot be empty")
	}
	if totalUnits < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "property must have at least one unit")
	}
	return &Property{
		ID:         propertyID,
		LandlordID: landlordID,
		Name:       name,
		City:       city,
		TotalUnits: totalUnits,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
