// Package notify delivers one-way informational records to users. It is not a
// source of truth for business state: delivery failure never rolls back the
// transition that triggered it.
package notify

import (
	"time"

	id "domus/pkg/domain"
)

// Kind labels what a notification is about.
type Kind string

const (
	KindRequestApproved Kind = "request_approved"
	KindRequestRejected Kind = "request_rejected"
	KindMoveOut         Kind = "move_out"
	KindNewBill         Kind = "new_bill"
	KindPaymentReceived Kind = "payment_received"
)

// Notification is the stored record behind the portal's notification feed.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	Role      id.Role           `json:"role"`
	Kind      Kind              `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}
