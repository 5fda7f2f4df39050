package models

import (
	"strings"
	"time"

	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

// RequestStatus is the verification request lifecycle state.
//
// State machine: pending -> {approved, rejected}; approved -> moved_out.
// rejected and moved_out are absorbing; approved stays open so a later
// move-out decision can land on the same request record.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusMovedOut RequestStatus = "moved_out"
)

// Identity carries the applicant-submitted identity fields a landlord reviews.
type Identity struct {
	FullName      string `json:"full_name"`
	Mobile        string `json:"mobile"`
	IDProofType   string `json:"id_proof_type"`
	IDProofNumber string `json:"id_proof_number"`
	City          string `json:"city"`
}

// Normalize trims whitespace on all submitted fields.
func (i *Identity) Normalize() {
	i.FullName = strings.TrimSpace(i.FullName)
	i.Mobile = strings.TrimSpace(i.Mobile)
	i.IDProofType = strings.TrimSpace(i.IDProofType)
	i.IDProofNumber = strings.TrimSpace(i.IDProofNumber)
	i.City = strings.TrimSpace(i.City)
}

// Validate checks the applicant supplied the fields verification needs.
func (i Identity) Validate() error {
	if i.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if i.Mobile == "" {
		return dErrors.New(dErrors.CodeValidation, "mobile number is required")
	}
	if i.IDProofType == "" || i.IDProofNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "id proof type and number are required")
	}
	return nil
}

// VerificationRequest is an application by a tenant to join a property.
//
// Invariants:
//   - at most one request per tenant may be pending at a time (enforced by
//     the registry's query-then-insert under the per-tenant lock)
//   - only the owning landlord mutates a request
type VerificationRequest struct {
	ID          id.RequestID  `json:"id"`
	TenantID    id.UserID     `json:"tenant_id"`
	LandlordID  id.UserID     `json:"landlord_id"`
	PropertyID  id.PropertyID `json:"property_id"`
	Identity    Identity      `json:"identity"`
	Status      RequestStatus `json:"status"`
	Remarks     string        `json:"remarks,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	JoiningDate *time.Time    `json:"joining_date,omitempty"`
}

// OwnedBy reports whether the acting landlord owns this request.
func (r *VerificationRequest) OwnedBy(landlordID id.UserID) bool {
	return r.LandlordID == landlordID
}

// CanApprove checks the pending -> approved transition.
func (r *VerificationRequest) CanApprove() error {
	if r.Status != RequestStatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "only a pending request can be approved")
	}
	return nil
}

// ApplyApproval transitions the request to approved. Call CanApprove first.
func (r *VerificationRequest) ApplyApproval() {
	r.Status = RequestStatusApproved
}

// CanReject checks the pending -> rejected transition.
func (r *VerificationRequest) CanReject() error {
	if r.Status != RequestStatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "only a pending request can be rejected")
	}
	return nil
}

// ApplyRejection transitions the request to rejected with optional remarks.
func (r *VerificationRequest) ApplyRejection(remarks string) {
	r.Status = RequestStatusRejected
	r.Remarks = remarks
}

// CanMoveOut checks the approved -> moved_out transition.
func (r *VerificationRequest) CanMoveOut() error {
	if r.Status != RequestStatusApproved {
		return dErrors.New(dErrors.CodeInvariantViolation, "only an approved request can be moved out")
	}
	return nil
}

// ApplyMoveOut transitions the request to moved_out.
func (r *VerificationRequest) ApplyMoveOut() {
	r.Status = RequestStatusMovedOut
}

// NewVerificationRequest constructs a pending request after validating the
// submitted identity.
func NewVerificationRequest(
	requestID id.RequestID,
	tenantID, landlordID id.UserID,
	propertyID id.PropertyID,
	identity Identity,
	joiningDate *time.Time,
	now time.Time,
) (*VerificationRequest, error) {
	identity.Normalize()
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return &VerificationRequest{
		ID:          requestID,
		TenantID:    tenantID,
		LandlordID:  landlordID,
		PropertyID:  propertyID,
		Identity:    identity,
		Status:      RequestStatusPending,
		SubmittedAt: now,
		JoiningDate: joiningDate,
	}, nil
}
