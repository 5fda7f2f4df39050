package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"domus/internal/engine"
	"domus/internal/platform/middleware"
	"domus/internal/tenancy/models"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/httputil"
	"domus/pkg/requestcontext"
)

// Service defines the interface for tenancy operations.
type Service interface {
	SubmitRequest(ctx context.Context, tenantID id.UserID, propertyID id.PropertyID, ident models.Identity, joiningDate *time.Time) (*models.VerificationRequest, error)
	DecideRequest(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID, decision engine.Decision, remarks string) (*models.VerificationRequest, error)
	EndStay(ctx context.Context, actingLandlordID id.UserID, stayID id.StayID, revokeAccess bool) (*models.TenantStay, error)
	GetActiveStay(ctx context.Context, tenantID id.UserID) (*models.TenantStay, error)
	ListRequestsByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.VerificationRequest, error)
	ListRequestsByTenant(ctx context.Context, tenantID id.UserID) ([]*models.VerificationRequest, error)
}

// Handler wires tenancy endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a tenancy handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenancy endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.With(middleware.RequireRole(id.RoleTenant, h.logger)).Post("/", h.HandleSubmit)
		r.Get("/", h.HandleList)
		r.With(middleware.RequireRole(id.RoleLandlord, h.logger)).Post("/{requestID}/decision", h.HandleDecide)
	})
	r.Route("/stays", func(r chi.Router) {
		r.With(middleware.RequireRole(id.RoleTenant, h.logger)).Get("/active", h.HandleActiveStay)
		r.With(middleware.RequireRole(id.RoleLandlord, h.logger)).Post("/{stayID}/end", h.HandleEndStay)
	})
}

// HandleSubmit handles POST /requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	payload, ok := httputil.DecodeAndPrepare[SubmitRequestPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	request, err := h.service.SubmitRequest(ctx, requestcontext.ActorID(ctx),
		payload.ParsedPropertyID(), payload.Identity(), payload.JoiningDate)
	if err != nil {
		h.logger.ErrorContext(ctx, "request submission failed",
			"request_id", requestID,
			"property_id", payload.PropertyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, request)
}

// HandleList handles GET /requests; landlords see incoming requests, tenants
// their own submissions.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.ActorID(ctx)

	var requests []*models.VerificationRequest
	var err error
	switch requestcontext.ActorRole(ctx) {
	case id.RoleLandlord:
		requests, err = h.service.ListRequestsByLandlord(ctx, actorID)
	case id.RoleTenant:
		requests, err = h.service.ListRequestsByTenant(ctx, actorID)
	default:
		err = dErrors.New(dErrors.CodeForbidden, "unknown role")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, requests)
}

// HandleDecide handles POST /requests/{requestID}/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := requestcontext.RequestID(ctx)
	start := time.Now()

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request id must be a valid uuid"))
		return
	}

	payload, ok := httputil.DecodeAndPrepare[DecidePayload](w, r, h.logger, ctx, reqID)
	if !ok {
		return
	}

	request, err := h.service.DecideRequest(ctx, requestcontext.ActorID(ctx),
		requestID, payload.ParsedDecision(), payload.Remarks)
	if err != nil {
		h.logger.ErrorContext(ctx, "request decision failed",
			"request_id", reqID,
			"verification_request_id", requestID.String(),
			"decision", payload.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "request decided",
		"request_id", reqID,
		"verification_request_id", requestID.String(),
		"decision", payload.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, request)
}

// HandleActiveStay handles GET /stays/active.
func (h *Handler) HandleActiveStay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stay, err := h.service.GetActiveStay(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stay)
}

// HandleEndStay handles POST /stays/{stayID}/end.
func (h *Handler) HandleEndStay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := requestcontext.RequestID(ctx)

	stayID, err := id.ParseStayID(chi.URLParam(r, "stayID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "stay id must be a valid uuid"))
		return
	}

	payload, ok := httputil.DecodeAndPrepare[EndStayPayload](w, r, h.logger, ctx, reqID)
	if !ok {
		return
	}

	stay, err := h.service.EndStay(ctx, requestcontext.ActorID(ctx), stayID, payload.RevokeAccess)
	if err != nil {
		h.logger.ErrorContext(ctx, "stay termination failed",
			"request_id", reqID,
			"stay_id", stayID.String(),
			"revoke_access", payload.RevokeAccess,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stay)
}
