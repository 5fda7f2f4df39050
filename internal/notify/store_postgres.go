package notify

import (
	"context"
	"database/sql"
	"fmt"

	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// PostgresStore persists notification records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, notification Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, role, kind, title, body, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		notification.ID.String(), notification.UserID.String(), string(notification.Role),
		string(notification.Kind), notification.Title, notification.Body,
		notification.IsRead, notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, role id.Role) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, kind, title, body, is_read, created_at
		FROM notifications WHERE user_id = $1 AND role = $2 ORDER BY created_at DESC`,
		userID.String(), string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var rawID, rawUser, rawRole, rawKind string
		err := rows.Scan(&rawID, &rawUser, &rawRole, &rawKind, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.ID, err = id.ParseNotificationID(rawID); err != nil {
			return nil, err
		}
		if n.UserID, err = id.ParseUserID(rawUser); err != nil {
			return nil, err
		}
		n.Role = id.Role(rawRole)
		n.Kind = Kind(rawKind)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID.String(), userID.String(),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
