package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"domus/internal/platform/middleware"
	"domus/internal/property/models"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/httputil"
	"domus/pkg/requestcontext"
)

// Service defines the interface for property operations.
type Service interface {
	Create(ctx context.Context, landlordID id.UserID, name, city string, totalUnits int) (*models.Property, error)
	Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Property, error)
}

// Handler wires property endpoints to the property service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a property handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts property endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/properties", func(r chi.Router) {
		r.With(middleware.RequireRole(id.RoleLandlord, h.logger)).Post("/", h.HandleCreate)
		r.With(middleware.RequireRole(id.RoleLandlord, h.logger)).Get("/", h.HandleList)
		r.Get("/{propertyID}", h.HandleGet)
	})
}

// CreatePropertyPayload is the wire form of a property registration.
type CreatePropertyPayload struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	TotalUnits int    `json:"total_units"`
}

// HandleCreate handles POST /properties.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	payload, ok := httputil.DecodeAndPrepare[CreatePropertyPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	property, err := h.service.Create(ctx, requestcontext.ActorID(ctx),
		payload.Name, payload.City, payload.TotalUnits)
	if err != nil {
		h.logger.ErrorContext(ctx, "property creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, property)
}

// HandleList handles GET /properties.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	properties, err := h.service.ListByLandlord(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, properties)
}

// HandleGet handles GET /properties/{propertyID}; the response carries the
// live occupancy counter.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "property id must be a valid uuid"))
		return
	}

	property, err := h.service.Get(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, property)
}
