package ledger

import (
	"context"
	"database/sql"
	"fmt"

	id "domus/pkg/domain"
)

// PostgresStore persists history entries in PostgreSQL. A monotonically
// increasing sequence column preserves insertion order across restarts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_entries
			(id, tenant_id, type, description, amount, month, year, units, status, date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID.String(), entry.TenantID.String(), string(entry.Type), entry.Description,
		entry.Amount, entry.Month, entry.Year, entry.Units, entry.Status, entry.Date,
		entry.CreatedBy.String(),
	)
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.UserID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, type, description, amount, month, year, units, status, date, created_by
		FROM history_entries WHERE tenant_id = $1 ORDER BY seq`,
		tenantID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var rawID, rawTenant, rawType, rawCreatedBy string
		err := rows.Scan(&rawID, &rawTenant, &rawType, &entry.Description, &entry.Amount,
			&entry.Month, &entry.Year, &entry.Units, &entry.Status, &entry.Date, &rawCreatedBy)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if entry.ID, err = parseEntryID(rawID); err != nil {
			return nil, err
		}
		if entry.TenantID, err = id.ParseUserID(rawTenant); err != nil {
			return nil, err
		}
		if entry.CreatedBy, err = id.ParseUserID(rawCreatedBy); err != nil {
			return nil, err
		}
		entry.Type = EntryType(rawType)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func parseEntryID(raw string) (id.EntryID, error) {
	var entryID id.EntryID
	if err := entryID.UnmarshalText([]byte(raw)); err != nil {
		return id.EntryID{}, fmt.Errorf("parse entry id: %w", err)
	}
	return entryID, nil
}
