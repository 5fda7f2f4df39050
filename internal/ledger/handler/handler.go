package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"domus/internal/ledger"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/httputil"
	"domus/pkg/requestcontext"
)

// Service defines the interface for history reads.
type Service interface {
	ListHistory(ctx context.Context, tenantID id.UserID) ([]ledger.Entry, error)
}

// Handler exposes the read side of the ledger. Appends happen only inside
// orchestrated operations; there is deliberately no write endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts history endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/{tenantID}/history", h.HandleList)
}

// HandleList handles GET /tenants/{tenantID}/history. Tenants may read only
// their own ledger; landlords may read any tenant's, which is how they vet
// applicants.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseUserID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "tenant id must be a valid uuid"))
		return
	}

	if requestcontext.ActorRole(ctx) == id.RoleTenant && requestcontext.ActorID(ctx) != tenantID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "tenants may only read their own history"))
		return
	}

	entries, err := h.service.ListHistory(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, entries)
}
