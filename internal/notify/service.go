package notify

import (
	"context"
	"errors"
	"log/slog"

	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/sentinel"
	"domus/pkg/requestcontext"
)

// Service is the store-backed Notifier. Notify records the notification and
// recovers every failure locally; callers cannot observe delivery errors.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Notify(ctx context.Context, userID id.UserID, role id.Role, kind Kind, title, body string) {
	notification := Notification{
		ID:        id.NewNotificationID(),
		UserID:    userID,
		Role:      role,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, notification); err != nil {
		s.logger.ErrorContext(ctx, "failed to save notification",
			"user_id", userID.String(),
			"kind", string(kind),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// ListByUser returns a user's notification feed for one role.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID, role id.Role) ([]Notification, error) {
	notifications, err := s.store.ListByUser(ctx, userID, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	if err := s.store.MarkRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return nil
}
