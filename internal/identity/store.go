package identity

import (
	"context"

	id "domus/pkg/domain"
)

// Store is the persistence contract for user records.
type Store interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
}
