package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"domus/internal/tenancy/models"
	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// PostgresRequestStore persists verification requests in PostgreSQL. A
// partial unique index on (tenant_id) WHERE status = 'pending' backs the
// one-pending-request invariant at the storage layer; inserts that trip it
// surface as sentinel.ErrConflict.
type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgresRequests(db *sql.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

func (s *PostgresRequestStore) Save(ctx context.Context, request *models.VerificationRequest) error {
	var joiningDate sql.NullTime
	if request.JoiningDate != nil {
		joiningDate = sql.NullTime{Time: *request.JoiningDate, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_requests
			(id, tenant_id, landlord_id, property_id, full_name, mobile,
			 id_proof_type, id_proof_number, city, status, remarks, submitted_at, joining_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, remarks = EXCLUDED.remarks`,
		request.ID.String(), request.TenantID.String(), request.LandlordID.String(),
		request.PropertyID.String(), request.Identity.FullName, request.Identity.Mobile,
		request.Identity.IDProofType, request.Identity.IDProofNumber, request.Identity.City,
		string(request.Status), request.Remarks, request.SubmittedAt, joiningDate,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save verification request: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.VerificationRequest, error) {
	row := s.db.QueryRowContext(ctx, requestSelect+` WHERE id = $1`, requestID.String())
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification request: %w", err)
	}
	return request, nil
}

func (s *PostgresRequestStore) FindPendingByTenant(ctx context.Context, tenantID id.UserID) (*models.VerificationRequest, error) {
	row := s.db.QueryRowContext(ctx,
		requestSelect+` WHERE tenant_id = $1 AND status = 'pending'`, tenantID.String())
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pending request: %w", err)
	}
	return request, nil
}

func (s *PostgresRequestStore) ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.VerificationRequest, error) {
	return s.list(ctx, requestSelect+` WHERE landlord_id = $1 ORDER BY submitted_at`, landlordID.String())
}

func (s *PostgresRequestStore) ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.VerificationRequest, error) {
	return s.list(ctx, requestSelect+` WHERE tenant_id = $1 ORDER BY submitted_at`, tenantID.String())
}

func (s *PostgresRequestStore) list(ctx context.Context, query string, arg any) ([]*models.VerificationRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list verification requests: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification request: %w", err)
		}
		out = append(out, request)
	}
	return out, rows.Err()
}

const requestSelect = `
	SELECT id, tenant_id, landlord_id, property_id, full_name, mobile,
	       id_proof_type, id_proof_number, city, status, remarks, submitted_at, joining_date
	FROM verification_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.VerificationRequest, error) {
	var request models.VerificationRequest
	var rawID, rawTenant, rawLandlord, rawProperty, rawStatus string
	var joiningDate sql.NullTime
	err := row.Scan(&rawID, &rawTenant, &rawLandlord, &rawProperty,
		&request.Identity.FullName, &request.Identity.Mobile,
		&request.Identity.IDProofType, &request.Identity.IDProofNumber,
		&request.Identity.City, &rawStatus, &request.Remarks,
		&request.SubmittedAt, &joiningDate)
	if err != nil {
		return nil, err
	}
	if request.ID, err = id.ParseRequestID(rawID); err != nil {
		return nil, err
	}
	if request.TenantID, err = id.ParseUserID(rawTenant); err != nil {
		return nil, err
	}
	if request.LandlordID, err = id.ParseUserID(rawLandlord); err != nil {
		return nil, err
	}
	if request.PropertyID, err = id.ParsePropertyID(rawProperty); err != nil {
		return nil, err
	}
	request.Status = models.RequestStatus(rawStatus)
	if joiningDate.Valid {
		t := joiningDate.Time
		request.JoiningDate = &t
	}
	return &request, nil
}

// PostgresStayStore persists tenancy records in PostgreSQL.
type PostgresStayStore struct {
	db *sql.DB
}

func NewPostgresStays(db *sql.DB) *PostgresStayStore {
	return &PostgresStayStore{db: db}
}

func (s *PostgresStayStore) Save(ctx context.Context, stay *models.TenantStay) error {
	var moveOut sql.NullTime
	if stay.MoveOutDate != nil {
		moveOut = sql.NullTime{Time: *stay.MoveOutDate, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenant_stays (id, tenant_id, landlord_id, property_id, join_date, move_out_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET move_out_date = EXCLUDED.move_out_date, status = EXCLUDED.status`,
		stay.ID.String(), stay.TenantID.String(), stay.LandlordID.String(),
		stay.PropertyID.String(), stay.JoinDate, moveOut, string(stay.Status),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save tenant stay: %w", err)
	}
	return nil
}

func (s *PostgresStayStore) FindByID(ctx context.Context, stayID id.StayID) (*models.TenantStay, error) {
	row := s.db.QueryRowContext(ctx, staySelect+` WHERE id = $1`, stayID.String())
	stay, err := scanStay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant stay: %w", err)
	}
	return stay, nil
}

func (s *PostgresStayStore) FindActiveByTenant(ctx context.Context, tenantID id.UserID) (*models.TenantStay, error) {
	row := s.db.QueryRowContext(ctx,
		staySelect+` WHERE tenant_id = $1 AND status = 'ACTIVE'`, tenantID.String())
	stay, err := scanStay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find active stay: %w", err)
	}
	return stay, nil
}

func (s *PostgresStayStore) ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.TenantStay, error) {
	rows, err := s.db.QueryContext(ctx,
		staySelect+` WHERE tenant_id = $1 ORDER BY join_date`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("list tenant stays: %w", err)
	}
	defer rows.Close()

	var out []*models.TenantStay
	for rows.Next() {
		stay, err := scanStay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant stay: %w", err)
		}
		out = append(out, stay)
	}
	return out, rows.Err()
}

const staySelect = `
	SELECT id, tenant_id, landlord_id, property_id, join_date, move_out_date, status
	FROM tenant_stays`

func scanStay(row rowScanner) (*models.TenantStay, error) {
	var stay models.TenantStay
	var rawID, rawTenant, rawLandlord, rawProperty, rawStatus string
	var moveOut sql.NullTime
	err := row.Scan(&rawID, &rawTenant, &rawLandlord, &rawProperty,
		&stay.JoinDate, &moveOut, &rawStatus)
	if err != nil {
		return nil, err
	}
	if stay.ID, err = id.ParseStayID(rawID); err != nil {
		return nil, err
	}
	if stay.TenantID, err = id.ParseUserID(rawTenant); err != nil {
		return nil, err
	}
	if stay.LandlordID, err = id.ParseUserID(rawLandlord); err != nil {
		return nil, err
	}
	if stay.PropertyID, err = id.ParsePropertyID(rawProperty); err != nil {
		return nil, err
	}
	stay.Status = models.StayStatus(rawStatus)
	if moveOut.Valid {
		t := moveOut.Time
		stay.MoveOutDate = &t
	}
	return &stay, nil
}
