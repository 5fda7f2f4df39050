package handler

import (
	"time"

	"domus/internal/engine"
	"domus/internal/tenancy/models"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

// SubmitRequestPayload is the wire form of a tenant's application.
type SubmitRequestPayload struct {
	PropertyID    string     `json:"property_id"`
	FullName      string     `json:"full_name"`
	Mobile        string     `json:"mobile"`
	IDProofType   string     `json:"id_proof_type"`
	IDProofNumber string     `json:"id_proof_number"`
	City          string     `json:"city"`
	JoiningDate   *time.Time `json:"joining_date,omitempty"`

	propertyID id.PropertyID
}

// Validate parses the property reference. Identity field validation happens
// in the domain model so it is shared with non-HTTP callers.
func (p *SubmitRequestPayload) Validate() error {
	propertyID, err := id.ParsePropertyID(p.PropertyID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "property_id must be a valid uuid")
	}
	p.propertyID = propertyID
	return nil
}

func (p *SubmitRequestPayload) ParsedPropertyID() id.PropertyID {
	return p.propertyID
}

func (p *SubmitRequestPayload) Identity() models.Identity {
	return models.Identity{
		FullName:      p.FullName,
		Mobile:        p.Mobile,
		IDProofType:   p.IDProofType,
		IDProofNumber: p.IDProofNumber,
		City:          p.City,
	}
}

// DecidePayload is the wire form of a landlord's verdict.
type DecidePayload struct {
	Decision string `json:"decision"`
	Remarks  string `json:"remarks,omitempty"`

	decision engine.Decision
}

func (p *DecidePayload) Validate() error {
	switch engine.Decision(p.Decision) {
	case engine.DecisionApprove, engine.DecisionReject, engine.DecisionMoveOut:
		p.decision = engine.Decision(p.Decision)
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "decision must be approve, reject or move_out")
}

func (p *DecidePayload) ParsedDecision() engine.Decision {
	return p.decision
}

// EndStayPayload is the wire form of a direct stay termination.
type EndStayPayload struct {
	RevokeAccess bool `json:"revoke_access"`
}
