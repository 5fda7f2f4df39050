package models

import (
	"time"

	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

// StayStatus is the tenancy lifecycle state.
type StayStatus string

const (
	StayStatusActive   StayStatus = "ACTIVE"
	StayStatusMovedOut StayStatus = "MOVED_OUT"
)

// TenantStay is the authoritative record of an active or past tenancy.
//
// Invariants:
//   - a tenant has at most one ACTIVE stay at any time (the registry
//     re-checks this at the point of creation)
//   - created only as a side effect of an approval; never deleted
//   - MOVED_OUT is terminal and sets MoveOutDate
type TenantStay struct {
	ID          id.StayID     `json:"id"`
	TenantID    id.UserID     `json:"tenant_id"`
	LandlordID  id.UserID     `json:"landlord_id"`
	PropertyID  id.PropertyID `json:"property_id"`
	JoinDate    time.Time     `json:"join_date"`
	MoveOutDate *time.Time    `json:"move_out_date,omitempty"`
	Status      StayStatus    `json:"status"`
}

func (s *TenantStay) IsActive() bool {
	return s.Status == StayStatusActive
}

// OwnedBy reports whether the acting landlord owns this stay.
func (s *TenantStay) OwnedBy(landlordID id.UserID) bool {
	return s.LandlordID == landlordID
}

// CanEnd checks the ACTIVE -> MOVED_OUT transition.
func (s *TenantStay) CanEnd() error {
	if s.Status != StayStatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "stay is not active")
	}
	return nil
}

// ApplyEnd transitions the stay to MOVED_OUT. Call CanEnd first.
func (s *TenantStay) ApplyEnd(now time.Time) {
	s.Status = StayStatusMovedOut
	s.MoveOutDate = &now
}

// NewTenantStay constructs an ACTIVE stay starting at joinDate.
func NewTenantStay(
	stayID id.StayID,
	tenantID, landlordID id.UserID,
	propertyID id.PropertyID,
	joinDate time.Time,
) *TenantStay {
	return &TenantStay{
		ID:         stayID,
		TenantID:   tenantID,
		LandlordID: landlordID,
		PropertyID: propertyID,
		JoinDate:   joinDate,
		Status:     StayStatusActive,
	}
}
