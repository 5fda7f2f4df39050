package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"domus/internal/identity"
	property "domus/internal/property/models"
	"domus/internal/tenancy/metrics"
	"domus/internal/tenancy/models"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/sentinel"
	"domus/pkg/requestcontext"
)

type RequestStore interface {
	Save(ctx context.Context, request *models.VerificationRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.VerificationRequest, error)
	FindPendingByTenant(ctx context.Context, tenantID id.UserID) (*models.VerificationRequest, error)
	ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.VerificationRequest, error)
	ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.VerificationRequest, error)
}

type StayStore interface {
	Save(ctx context.Context, stay *models.TenantStay) error
	FindByID(ctx context.Context, stayID id.StayID) (*models.TenantStay, error)
	FindActiveByTenant(ctx context.Context, tenantID id.UserID) (*models.TenantStay, error)
	ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.TenantStay, error)
}

// PropertyFinder is the slice of the property service the registry needs.
type PropertyFinder interface {
	Get(ctx context.Context, propertyID id.PropertyID) (*property.Property, error)
}

// Registry owns the VerificationRequest and TenantStay state machines. Every
// mutation that can violate the one-pending-request or one-active-stay
// invariant runs its read-check-write under the per-tenant lock.
type Registry struct {
	requests   RequestStore
	stays      StayStore
	properties PropertyFinder
	users      identity.Store
	locks      *tenantLocks
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New constructs a Registry.
func New(requests RequestStore, stays StayStore, properties PropertyFinder, users identity.Store, opts ...Option) *Registry {
	r := &Registry{
		requests:   requests,
		stays:      stays,
		properties: properties,
		users:      users,
		locks:      newTenantLocks(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubmitRequest stores a tenant's application against a property. Duplicate
// pending submissions are rejected with a conflict, not silently merged.
func (r *Registry) SubmitRequest(
	ctx context.Context,
	tenantID id.UserID,
	propertyID id.PropertyID,
	ident models.Identity,
	joiningDate *time.Time,
) (*models.VerificationRequest, error) {
	prop, err := r.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	request, err := models.NewVerificationRequest(
		id.NewRequestID(), tenantID, prop.LandlordID, propertyID, ident, joiningDate, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	// Query-then-insert under the tenant lock. Best effort under concurrent
	// submission; the postgres store's partial unique index backs it up.
	err = r.locks.run(ctx, tenantID, func(ctx context.Context) error {
		_, err := r.requests.FindPendingByTenant(ctx, tenantID)
		if err == nil {
			return dErrors.New(dErrors.CodeConflict, "tenant already has a pending request")
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending requests")
		}
		if err := r.requests.Save(ctx, request); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "tenant already has a pending request")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RequestsSubmitted.Inc()
	}
	r.logger.InfoContext(ctx, "verification request submitted",
		"request_id", request.ID.String(),
		"tenant_id", tenantID.String(),
		"property_id", propertyID.String(),
		"log_type", "audit",
	)
	return request, nil
}

// Approve transitions a pending request to approved and creates the ACTIVE
// stay. The one-active-stay check runs at the point of creation, under the
// tenant lock, so concurrent approvals for the same tenant cannot both win.
func (r *Registry) Approve(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID) (*models.VerificationRequest, *models.TenantStay, error) {
	request, err := r.loadOwnedRequest(ctx, actingLandlordID, requestID)
	if err != nil {
		return nil, nil, err
	}
	if err := request.CanApprove(); err != nil {
		return nil, nil, dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}

	joinDate := requestcontext.Now(ctx)
	if request.JoiningDate != nil {
		joinDate = *request.JoiningDate
	}
	stay := models.NewTenantStay(id.NewStayID(), request.TenantID, request.LandlordID, request.PropertyID, joinDate)

	err = r.locks.run(ctx, request.TenantID, func(ctx context.Context) error {
		// Re-check at the point of creation, not earlier in the call.
		_, err := r.stays.FindActiveByTenant(ctx, request.TenantID)
		if err == nil {
			return dErrors.New(dErrors.CodeConflict, "tenant already has an active stay")
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check active stays")
		}

		if err := r.stays.Save(ctx, stay); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create stay")
		}
		request.ApplyApproval()
		if err := r.requests.Save(ctx, request); err != nil {
			return dErrors.Wrap(err, dErrors.CodePartialFailure,
				"stay created but request update failed")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if r.metrics != nil {
		r.metrics.RequestsDecided.WithLabelValues("approve").Inc()
		r.metrics.StaysCreated.Inc()
	}
	r.logger.InfoContext(ctx, "verification request approved",
		"request_id", request.ID.String(),
		"stay_id", stay.ID.String(),
		"tenant_id", request.TenantID.String(),
		"log_type", "audit",
	)
	return request, stay, nil
}

// Reject transitions a pending request to rejected. No stay or occupancy
// changes and no ledger fact; the tenant is only notified.
func (r *Registry) Reject(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID, remarks string) (*models.VerificationRequest, error) {
	request, err := r.loadOwnedRequest(ctx, actingLandlordID, requestID)
	if err != nil {
		return nil, err
	}
	if err := request.CanReject(); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}
	request.ApplyRejection(remarks)
	if err := r.requests.Save(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
	}

	if r.metrics != nil {
		r.metrics.RequestsDecided.WithLabelValues("reject").Inc()
	}
	r.logger.InfoContext(ctx, "verification request rejected",
		"request_id", request.ID.String(),
		"tenant_id", request.TenantID.String(),
		"log_type", "audit",
	)
	return request, nil
}

// MoveOutByRequest ends the tenant's active stay through an approved request
// and marks the request moved_out.
func (r *Registry) MoveOutByRequest(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID) (*models.VerificationRequest, *models.TenantStay, error) {
	request, err := r.loadOwnedRequest(ctx, actingLandlordID, requestID)
	if err != nil {
		return nil, nil, err
	}
	if err := request.CanMoveOut(); err != nil {
		return nil, nil, dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}

	var stay *models.TenantStay
	err = r.locks.run(ctx, request.TenantID, func(ctx context.Context) error {
		stay, err = r.stays.FindActiveByTenant(ctx, request.TenantID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeConflict, "no active stay to end")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active stay")
		}
		if err := r.endStayLocked(ctx, stay); err != nil {
			return err
		}
		request.ApplyMoveOut()
		if err := r.requests.Save(ctx, request); err != nil {
			return dErrors.Wrap(err, dErrors.CodePartialFailure,
				"stay ended but request update failed")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if r.metrics != nil {
		r.metrics.RequestsDecided.WithLabelValues("move_out").Inc()
	}
	return request, stay, nil
}

// EndStay terminates a stay directly, independent of any request. Access
// revocation is a separate, explicit step (RevokeAccess) so the orchestrator
// can sequence it rather than inherit it from which endpoint was called.
func (r *Registry) EndStay(ctx context.Context, actingLandlordID id.UserID, stayID id.StayID) (*models.TenantStay, error) {
	stay, err := r.stays.FindByID(ctx, stayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "stay not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stay")
	}
	if !stay.OwnedBy(actingLandlordID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "stay belongs to another landlord")
	}

	err = r.locks.run(ctx, stay.TenantID, func(ctx context.Context) error {
		return r.endStayLocked(ctx, stay)
	})
	if err != nil {
		return nil, err
	}
	return stay, nil
}

// RevokeAccess marks the tenant's platform account inactive. A missing
// account is not an error: there is simply nothing to revoke.
func (r *Registry) RevokeAccess(ctx context.Context, tenantID id.UserID) error {
	user, err := r.users.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	user.Deactivate(requestcontext.Now(ctx))
	if err := r.users.Save(ctx, user); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}
	r.logger.InfoContext(ctx, "tenant access revoked",
		"tenant_id", tenantID.String(),
		"log_type", "audit",
	)
	return nil
}

func (r *Registry) endStayLocked(ctx context.Context, stay *models.TenantStay) error {
	if err := stay.CanEnd(); err != nil {
		return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}
	stay.ApplyEnd(requestcontext.Now(ctx))
	if err := r.stays.Save(ctx, stay); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end stay")
	}
	if r.metrics != nil {
		r.metrics.StaysEnded.Inc()
	}
	r.logger.InfoContext(ctx, "stay ended",
		"stay_id", stay.ID.String(),
		"tenant_id", stay.TenantID.String(),
		"property_id", stay.PropertyID.String(),
		"log_type", "audit",
	)
	return nil
}

// GetActiveStay returns the tenant's ACTIVE stay.
func (r *Registry) GetActiveStay(ctx context.Context, tenantID id.UserID) (*models.TenantStay, error) {
	stay, err := r.stays.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active stay")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active stay")
	}
	return stay, nil
}

// GetRequest returns a request visible to its tenant or owning landlord.
func (r *Registry) GetRequest(ctx context.Context, requestID id.RequestID) (*models.VerificationRequest, error) {
	request, err := r.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	return request, nil
}

// ListRequestsByLandlord returns the landlord's incoming requests.
func (r *Registry) ListRequestsByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.VerificationRequest, error) {
	requests, err := r.requests.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return requests, nil
}

// ListRequestsByTenant returns the tenant's submitted requests.
func (r *Registry) ListRequestsByTenant(ctx context.Context, tenantID id.UserID) ([]*models.VerificationRequest, error) {
	requests, err := r.requests.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return requests, nil
}

func (r *Registry) loadOwnedRequest(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID) (*models.VerificationRequest, error) {
	request, err := r.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	if !request.OwnedBy(actingLandlordID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "request belongs to another landlord")
	}
	return request, nil
}
