package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"domus/internal/billing/models"
	"domus/internal/billing/service"
	"domus/internal/platform/middleware"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/httputil"
	"domus/pkg/requestcontext"
)

// Service defines the interface for billing operations.
type Service interface {
	IssueBill(ctx context.Context, actingLandlordID id.UserID, params service.IssueParams) (*models.Bill, error)
	SettleBill(ctx context.Context, actingTenantID id.UserID, billID id.BillID) (*models.Bill, error)
	WithdrawBill(ctx context.Context, actingLandlordID id.UserID, billID id.BillID) error
	ListBillsByTenant(ctx context.Context, tenantID id.UserID) ([]*models.Bill, error)
	ListBillsByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Bill, error)
}

// Handler wires billing endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a billing handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts billing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/bills", func(r chi.Router) {
		r.With(middleware.RequireRole(id.RoleLandlord, h.logger)).Post("/", h.HandleIssue)
		r.Get("/", h.HandleList)
		r.With(middleware.RequireRole(id.RoleTenant, h.logger)).Post("/{billID}/settle", h.HandleSettle)
		r.With(middleware.RequireRole(id.RoleLandlord, h.logger)).Delete("/{billID}", h.HandleWithdraw)
	})
}

// IssueBillPayload is the wire form of a landlord's charge.
type IssueBillPayload struct {
	StayID  string    `json:"stay_id"`
	Type    string    `json:"type"`
	Amount  float64   `json:"amount"`
	Month   string    `json:"month,omitempty"`
	Year    int       `json:"year,omitempty"`
	Units   int       `json:"units,omitempty"`
	DueDate time.Time `json:"due_date"`

	stayID id.StayID
}

// Validate parses the stay reference; amount and type checks live in the
// domain model.
func (p *IssueBillPayload) Validate() error {
	stayID, err := id.ParseStayID(p.StayID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "stay_id must be a valid uuid")
	}
	p.stayID = stayID
	return nil
}

func (p *IssueBillPayload) Params() service.IssueParams {
	return service.IssueParams{
		StayID:  p.stayID,
		Type:    models.BillType(p.Type),
		Amount:  p.Amount,
		Month:   p.Month,
		Year:    p.Year,
		Units:   p.Units,
		DueDate: p.DueDate,
	}
}

// HandleIssue handles POST /bills.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	payload, ok := httputil.DecodeAndPrepare[IssueBillPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	bill, err := h.service.IssueBill(ctx, requestcontext.ActorID(ctx), payload.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "bill issue failed",
			"request_id", requestID,
			"stay_id", payload.StayID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, bill)
}

// HandleList handles GET /bills; landlords see issued bills, tenants owed
// ones.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.ActorID(ctx)

	var bills []*models.Bill
	var err error
	switch requestcontext.ActorRole(ctx) {
	case id.RoleLandlord:
		bills, err = h.service.ListBillsByLandlord(ctx, actorID)
	case id.RoleTenant:
		bills, err = h.service.ListBillsByTenant(ctx, actorID)
	default:
		err = dErrors.New(dErrors.CodeForbidden, "unknown role")
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bills)
}

// HandleSettle handles POST /bills/{billID}/settle.
func (h *Handler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	billID, err := id.ParseBillID(chi.URLParam(r, "billID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "bill id must be a valid uuid"))
		return
	}

	bill, err := h.service.SettleBill(ctx, requestcontext.ActorID(ctx), billID)
	if err != nil {
		h.logger.ErrorContext(ctx, "bill settlement failed",
			"request_id", requestID,
			"bill_id", billID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bill)
}

// HandleWithdraw handles DELETE /bills/{billID}.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	billID, err := id.ParseBillID(chi.URLParam(r, "billID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "bill id must be a valid uuid"))
		return
	}

	if err := h.service.WithdrawBill(ctx, requestcontext.ActorID(ctx), billID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
