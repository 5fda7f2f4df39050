package models

import (
	"time"

	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

// BillType labels what the bill charges for.
type BillType string

const (
	BillRent    BillType = "RENT"
	BillUtility BillType = "UTILITY"
	BillOther   BillType = "OTHER"
)

func (t BillType) Valid() bool {
	switch t {
	case BillRent, BillUtility, BillOther:
		return true
	}
	return false
}

// BillStatus is the payment state of a bill. Only PENDING and PAID are ever
// stored; OVERDUE is derived at read time from the due date so a bill never
// needs a background job to flip it.
type BillStatus string

const (
	BillStatusPending BillStatus = "PENDING"
	BillStatusPaid    BillStatus = "PAID"
	BillStatusOverdue BillStatus = "OVERDUE"
)

// Bill is a charge a landlord issues against an active stay.
type Bill struct {
	ID         id.BillID     `json:"id"`
	StayID     id.StayID     `json:"stay_id"`
	TenantID   id.UserID     `json:"tenant_id"`
	LandlordID id.UserID     `json:"landlord_id"`
	PropertyID id.PropertyID `json:"property_id"`
	Type       BillType      `json:"type"`
	Amount     float64       `json:"amount"`
	Month      string        `json:"month,omitempty"`
	Year       int           `json:"year,omitempty"`
	Units      int           `json:"units,omitempty"`
	DueDate    time.Time     `json:"due_date"`
	Status     BillStatus    `json:"status"`
	PaidAt     *time.Time    `json:"paid_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// EffectiveStatus resolves the stored status against the clock. A PENDING
// bill past its due date reads as OVERDUE without any stored transition.
func (b *Bill) EffectiveStatus(now time.Time) BillStatus {
	if b.Status == BillStatusPaid {
		return BillStatusPaid
	}
	if now.After(b.DueDate) {
		return BillStatusOverdue
	}
	return BillStatusPending
}

// OwnedBy reports whether the acting landlord issued this bill.
func (b *Bill) OwnedBy(landlordID id.UserID) bool {
	return b.LandlordID == landlordID
}

// BilledTo reports whether the acting tenant owes this bill.
func (b *Bill) BilledTo(tenantID id.UserID) bool {
	return b.TenantID == tenantID
}

// CanSettle checks the PENDING -> PAID transition. Settling is idempotent at
// the caller's discretion; the second attempt surfaces here.
func (b *Bill) CanSettle() error {
	if b.Status == BillStatusPaid {
		return dErrors.New(dErrors.CodeInvariantViolation, "bill is already paid")
	}
	return nil
}

// ApplySettle transitions the bill to PAID. Call CanSettle first.
func (b *Bill) ApplySettle(now time.Time) {
	b.Status = BillStatusPaid
	b.PaidAt = &now
}

// NewBill constructs a PENDING bill after validating the charge.
func NewBill(
	billID id.BillID,
	stayID id.StayID,
	tenantID, landlordID id.UserID,
	propertyID id.PropertyID,
	billType BillType,
	amount float64,
	month string,
	year int,
	units int,
	dueDate time.Time,
	now time.Time,
) (*Bill, error) {
	if !billType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown bill type")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "bill amount must be positive")
	}
	if units < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "bill units cannot be negative")
	}
	if dueDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "bill due date is required")
	}
	return &Bill{
		ID:         billID,
		StayID:     stayID,
		TenantID:   tenantID,
		LandlordID: landlordID,
		PropertyID: propertyID,
		Type:       billType,
		Amount:     amount,
		Month:      month,
		Year:       year,
		Units:      units,
		DueDate:    dueDate,
		Status:     BillStatusPending,
		CreatedAt:  now,
	}, nil
}
