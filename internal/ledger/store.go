package ledger

import (
	"context"

	id "domus/pkg/domain"
)

// Store is the persistence contract for history entries. Append-only by
// construction: no update or delete is exposed, and insertion order is the
// canonical order ListByTenant returns.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByTenant(ctx context.Context, tenantID id.UserID) ([]Entry, error)
}
