package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// PostgresStore persists user records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, user *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		user.ID.String(), user.Name, string(user.Role), string(user.Status),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, status, created_at, updated_at
		FROM users WHERE id = $1`,
		userID.String(),
	)

	var (
		user    User
		rawID   string
		rawRole string
	)
	err := row.Scan(&rawID, &user.Name, &rawRole, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.ID, err = id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	user.Role = id.Role(rawRole)
	return &user, nil
}
