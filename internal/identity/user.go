// Package identity holds the minimal user records the engine touches. Account
// creation and login live in the auth service; the engine only needs to look
// users up and revoke platform access when a tenancy ends that way.
package identity

import (
	"time"

	id "domus/pkg/domain"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is the platform account for a tenant or landlord.
type User struct {
	ID        id.UserID  `json:"id"`
	Name      string     `json:"name"`
	Role      id.Role    `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Deactivate marks the account inactive. Idempotent: deactivating an already
// inactive account only refreshes the timestamp.
func (u *User) Deactivate(now time.Time) {
	u.Status = UserStatusInactive
	u.UpdatedAt = now
}
