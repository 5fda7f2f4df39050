package notify

import (
	"context"
	"log/slog"

	id "domus/pkg/domain"
)

type delivery struct {
	userID id.UserID
	role   id.Role
	kind   Kind
	title  string
	body   string
}

// Dispatcher decouples notification delivery from the request path through a
// bounded inbox. A slow or failing sink can never stall a state transition;
// when the inbox is full the delivery is dropped and logged.
type Dispatcher struct {
	inner  Notifier
	inbox  chan delivery
	logger *slog.Logger
}

func NewDispatcher(inner Notifier, buffer int, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		inner:  inner,
		inbox:  make(chan delivery, buffer),
		logger: logger,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, userID id.UserID, role id.Role, kind Kind, title, body string) {
	select {
	case d.inbox <- delivery{userID: userID, role: role, kind: kind, title: title, body: body}:
	default:
		d.logger.WarnContext(ctx, "notification inbox full, dropping delivery",
			"user_id", userID.String(),
			"kind", string(kind),
		)
	}
}

// Run consumes deliveries until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-d.inbox:
			d.inner.Notify(ctx, item.userID, item.role, item.kind, item.title, item.body)
		}
	}
}
