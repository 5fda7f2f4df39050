package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"domus/internal/property/models"
	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// PostgresStore persists property records in PostgreSQL. The occupancy
// counter lives on the property row; Adjust clamps in a single UPDATE so
// concurrent calls serialize on the row lock instead of racing in the caller.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, property *models.Property) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, landlord_id, name, city, total_units, occupied_units, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, city = EXCLUDED.city, updated_at = EXCLUDED.updated_at`,
		property.ID.String(), property.LandlordID.String(), property.Name, property.City,
		property.TotalUnits, property.OccupiedUnits, property.CreatedAt, property.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save property: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, landlord_id, name, city, total_units, occupied_units, created_at, updated_at
		FROM properties WHERE id = $1`,
		propertyID.String(),
	)
	property, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return property, nil
}

func (s *PostgresStore) ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, landlord_id, name, city, total_units, occupied_units, created_at, updated_at
		FROM properties WHERE landlord_id = $1 ORDER BY created_at`,
		landlordID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []*models.Property
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, property)
	}
	return out, rows.Err()
}

// Adjust applies a clamped delta in one statement. The CTE exposes the
// pre-update value so saturation is detectable without a second round trip.
func (s *PostgresStore) Adjust(ctx context.Context, propertyID id.PropertyID, delta int) (occupied, total int, saturated bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		WITH prev AS (
			SELECT occupied_units FROM properties WHERE id = $1 FOR UPDATE
		)
		UPDATE properties p
		SET occupied_units = LEAST(p.total_units, GREATEST(0, p.occupied_units + $2))
		FROM prev
		WHERE p.id = $1
		RETURNING p.occupied_units, p.total_units, prev.occupied_units`,
		propertyID.String(), delta,
	)

	var prevOccupied int
	if err := row.Scan(&occupied, &total, &prevOccupied); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, false, sentinel.ErrNotFound
		}
		return 0, 0, false, fmt.Errorf("adjust occupancy: %w", err)
	}
	saturated = occupied-prevOccupied != delta
	return occupied, total, saturated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var property models.Property
	var rawID, rawLandlord string
	err := row.Scan(&rawID, &rawLandlord, &property.Name, &property.City,
		&property.TotalUnits, &property.OccupiedUnits, &property.CreatedAt, &property.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if property.ID, err = id.ParsePropertyID(rawID); err != nil {
		return nil, err
	}
	if property.LandlordID, err = id.ParseUserID(rawLandlord); err != nil {
		return nil, err
	}
	return &property, nil
}
