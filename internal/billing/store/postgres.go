package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"domus/internal/billing/models"
	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// PostgresStore persists bills in PostgreSQL. Only PENDING and PAID are
// stored; OVERDUE is derived in the model at read time.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, bill *models.Bill) error {
	var paidAt sql.NullTime
	if bill.PaidAt != nil {
		paidAt = sql.NullTime{Time: *bill.PaidAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills
			(id, stay_id, tenant_id, landlord_id, property_id, bill_type,
			 amount, month, year, units, due_date, status, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, paid_at = EXCLUDED.paid_at`,
		bill.ID.String(), bill.StayID.String(), bill.TenantID.String(),
		bill.LandlordID.String(), bill.PropertyID.String(), string(bill.Type),
		bill.Amount, bill.Month, bill.Year, bill.Units, bill.DueDate,
		string(bill.Status), paidAt, bill.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save bill: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, billID id.BillID) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx, billSelect+` WHERE id = $1`, billID.String())
	bill, err := scanBill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find bill: %w", err)
	}
	return bill, nil
}

func (s *PostgresStore) Delete(ctx context.Context, billID id.BillID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, billID.String())
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.Bill, error) {
	return s.list(ctx, billSelect+` WHERE tenant_id = $1 ORDER BY created_at`, tenantID.String())
}

func (s *PostgresStore) ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Bill, error) {
	return s.list(ctx, billSelect+` WHERE landlord_id = $1 ORDER BY created_at`, landlordID.String())
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, bill)
	}
	return out, rows.Err()
}

const billSelect = `
	SELECT id, stay_id, tenant_id, landlord_id, property_id, bill_type,
	       amount, month, year, units, due_date, status, paid_at, created_at
	FROM bills`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*models.Bill, error) {
	var bill models.Bill
	var rawID, rawStay, rawTenant, rawLandlord, rawProperty, rawType, rawStatus string
	var paidAt sql.NullTime
	err := row.Scan(&rawID, &rawStay, &rawTenant, &rawLandlord, &rawProperty,
		&rawType, &bill.Amount, &bill.Month, &bill.Year, &bill.Units,
		&bill.DueDate, &rawStatus, &paidAt, &bill.CreatedAt)
	if err != nil {
		return nil, err
	}
	if bill.ID, err = id.ParseBillID(rawID); err != nil {
		return nil, err
	}
	if bill.StayID, err = id.ParseStayID(rawStay); err != nil {
		return nil, err
	}
	if bill.TenantID, err = id.ParseUserID(rawTenant); err != nil {
		return nil, err
	}
	if bill.LandlordID, err = id.ParseUserID(rawLandlord); err != nil {
		return nil, err
	}
	if bill.PropertyID, err = id.ParsePropertyID(rawProperty); err != nil {
		return nil, err
	}
	bill.Type = models.BillType(rawType)
	bill.Status = models.BillStatus(rawStatus)
	if paidAt.Valid {
		t := paidAt.Time
		bill.PaidAt = &t
	}
	return &bill, nil
}
