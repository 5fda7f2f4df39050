package notify

import (
	"context"

	id "domus/pkg/domain"
)

// Notifier is the fire-and-forget delivery contract the engine depends on.
// Implementations never propagate failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, userID id.UserID, role id.Role, kind Kind, title, body string)
}
