package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"domus/internal/billing/metrics"
	"domus/internal/billing/models"
	tenancy "domus/internal/tenancy/models"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/sentinel"
	"domus/pkg/requestcontext"
)

type Store interface {
	Save(ctx context.Context, bill *models.Bill) error
	FindByID(ctx context.Context, billID id.BillID) (*models.Bill, error)
	Delete(ctx context.Context, billID id.BillID) error
	ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.Bill, error)
	ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Bill, error)
}

// StayFinder is the slice of the tenancy registry billing needs: bills are
// issued against stays, never against bare tenant ids.
type StayFinder interface {
	FindByID(ctx context.Context, stayID id.StayID) (*tenancy.TenantStay, error)
}

// IssueParams carries the landlord's charge details.
type IssueParams struct {
	StayID  id.StayID
	Type    models.BillType
	Amount  float64
	Month   string
	Year    int
	Units   int
	DueDate time.Time
}

// Service owns the bill lifecycle.
type Service struct {
	store   Store
	stays   StayFinder
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a billing Service.
func New(store Store, stays StayFinder, opts ...Option) *Service {
	s := &Service{
		store:  store,
		stays:  stays,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a PENDING bill against an active stay the landlord owns.
func (s *Service) Issue(ctx context.Context, landlordID id.UserID, params IssueParams) (*models.Bill, error) {
	stay, err := s.stays.FindByID(ctx, params.StayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "stay not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stay")
	}
	if !stay.OwnedBy(landlordID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "stay belongs to another landlord")
	}
	if !stay.IsActive() {
		return nil, dErrors.New(dErrors.CodeConflict, "cannot bill an ended stay")
	}

	bill, err := models.NewBill(
		id.NewBillID(), stay.ID, stay.TenantID, stay.LandlordID, stay.PropertyID,
		params.Type, params.Amount, params.Month, params.Year, params.Units,
		params.DueDate, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, bill); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save bill")
	}

	if s.metrics != nil {
		s.metrics.BillsIssued.WithLabelValues(string(bill.Type)).Inc()
	}
	s.logger.InfoContext(ctx, "bill issued",
		"bill_id", bill.ID.String(),
		"stay_id", stay.ID.String(),
		"tenant_id", stay.TenantID.String(),
		"bill_type", string(bill.Type),
		"log_type", "audit",
	)
	return bill, nil
}

// Settle marks a bill PAID on behalf of the billed tenant. A second settle
// attempt is a conflict, not a no-op, so double payments surface upstream.
func (s *Service) Settle(ctx context.Context, tenantID id.UserID, billID id.BillID) (*models.Bill, error) {
	bill, err := s.load(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !bill.BilledTo(tenantID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "bill belongs to another tenant")
	}
	if err := bill.CanSettle(); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}
	bill.ApplySettle(requestcontext.Now(ctx))
	if err := s.store.Save(ctx, bill); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save bill")
	}

	if s.metrics != nil {
		s.metrics.BillsSettled.WithLabelValues(string(bill.Type)).Inc()
	}
	s.logger.InfoContext(ctx, "bill settled",
		"bill_id", bill.ID.String(),
		"tenant_id", tenantID.String(),
		"bill_type", string(bill.Type),
		"log_type", "audit",
	)
	return bill, nil
}

// Withdraw removes an unpaid bill the landlord issued. Paid bills stay: the
// payment fact is already on the tenant's history and removing the bill would
// orphan it.
func (s *Service) Withdraw(ctx context.Context, landlordID id.UserID, billID id.BillID) error {
	bill, err := s.load(ctx, billID)
	if err != nil {
		return err
	}
	if !bill.OwnedBy(landlordID) {
		return dErrors.New(dErrors.CodeForbidden, "bill belongs to another landlord")
	}
	if bill.Status == models.BillStatusPaid {
		return dErrors.New(dErrors.CodeConflict, "cannot withdraw a paid bill")
	}
	if err := s.store.Delete(ctx, billID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "bill not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete bill")
	}

	if s.metrics != nil {
		s.metrics.BillsDeleted.Inc()
	}
	s.logger.InfoContext(ctx, "bill withdrawn",
		"bill_id", billID.String(),
		"landlord_id", landlordID.String(),
		"log_type", "audit",
	)
	return nil
}

// Get returns a single bill with its status resolved against the clock.
func (s *Service) Get(ctx context.Context, billID id.BillID) (*models.Bill, error) {
	bill, err := s.load(ctx, billID)
	if err != nil {
		return nil, err
	}
	bill.Status = bill.EffectiveStatus(requestcontext.Now(ctx))
	return bill, nil
}

// ListByTenant returns a tenant's bills, statuses resolved against the clock.
func (s *Service) ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.Bill, error) {
	bills, err := s.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bills")
	}
	s.resolveStatuses(ctx, bills)
	return bills, nil
}

// ListByLandlord returns a landlord's issued bills, statuses resolved against
// the clock.
func (s *Service) ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Bill, error) {
	bills, err := s.store.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bills")
	}
	s.resolveStatuses(ctx, bills)
	return bills, nil
}

func (s *Service) resolveStatuses(ctx context.Context, bills []*models.Bill) {
	now := requestcontext.Now(ctx)
	for _, bill := range bills {
		bill.Status = bill.EffectiveStatus(now)
	}
}

func (s *Service) load(ctx context.Context, billID id.BillID) (*models.Bill, error) {
	bill, err := s.store.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "bill not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bill")
	}
	return bill, nil
}
