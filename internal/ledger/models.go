// Package ledger is the append-only, per-tenant audit trail of lifecycle and
// payment events. It is the source data for the trust score computed outside
// this engine; entries are immutable once appended.
package ledger

import (
	"time"

	id "domus/pkg/domain"
)

// EntryType labels the fact an entry records.
type EntryType string

const (
	EntryJoined      EntryType = "JOINED"
	EntryMoveOut     EntryType = "MOVE_OUT"
	EntryPayment     EntryType = "PAYMENT"
	EntryRentPayment EntryType = "RENT_PAYMENT"
	EntryLightBill   EntryType = "LIGHT_BILL"
	EntryRemark      EntryType = "REMARK"
)

// Entry is an immutable fact about a tenant. Optional fields are zero when
// the type does not carry them.
type Entry struct {
	ID          id.EntryID `json:"id"`
	TenantID    id.UserID  `json:"tenant_id"`
	Type        EntryType  `json:"type"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount,omitempty"`
	Month       string     `json:"month,omitempty"`
	Year        int        `json:"year,omitempty"`
	Units       int        `json:"units,omitempty"`
	Status      string     `json:"status,omitempty"`
	Date        time.Time  `json:"date"`
	CreatedBy   id.UserID  `json:"created_by"`
}
