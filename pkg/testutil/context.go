package testutil

import (
	"context"
	"net/http"
	"time"

	id "domus/pkg/domain"
	"domus/pkg/requestcontext"
)

// WithActor adds an authenticated (actorID, role) pair to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the actorID is not a valid UUID, it will not be added to the context.
func WithActor(req *http.Request, actorID string, role id.Role) *http.Request {
	parsed, err := id.ParseUserID(actorID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), parsed, role))
}

// WithTime pins the request-scoped clock so handlers and services under test
// produce deterministic timestamps.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// Context builds a bare context with an actor and a fixed time, for service
// tests that skip the HTTP layer.
func Context(actorID id.UserID, role id.Role, now time.Time) context.Context {
	ctx := requestcontext.WithActor(context.Background(), actorID, role)
	return requestcontext.WithTime(ctx, now)
}
