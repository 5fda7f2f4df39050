package ledger

import (
	"context"

	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/requestcontext"
)

// Publisher appends structured history entries. It is append-only and uses
// the storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Append assigns identity and timestamp defaults, then persists the entry.
func (p *Publisher) Append(ctx context.Context, entry Entry) (Entry, error) {
	if entry.TenantID.IsZero() {
		return Entry{}, dErrors.New(dErrors.CodeValidation, "history entry requires a tenant id")
	}
	if entry.ID.IsZero() {
		entry.ID = id.NewEntryID()
	}
	if entry.Date.IsZero() {
		entry.Date = requestcontext.Now(ctx)
	}
	if err := p.store.Append(ctx, entry); err != nil {
		return Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append history entry")
	}
	return entry, nil
}

// ListByTenant returns a tenant's entries in insertion order.
func (p *Publisher) ListByTenant(ctx context.Context, tenantID id.UserID) ([]Entry, error) {
	entries, err := p.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list history entries")
	}
	return entries, nil
}
