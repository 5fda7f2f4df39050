package service

import (
	"context"
	"errors"
	"log/slog"

	"domus/internal/property/metrics"
	"domus/internal/property/models"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/sentinel"
	"domus/pkg/requestcontext"
)

// Store is the persistence contract for properties and their occupancy
// counter. Adjust must be a clamped read-modify-write against the current
// stored value, never against a snapshot held by the caller.
type Store interface {
	Save(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Property, error)
	Adjust(ctx context.Context, propertyID id.PropertyID, delta int) (occupied, total int, saturated bool, err error)
}

// Service owns property records and the occupancy bookkeeping. The clamp
// invariant (0 <= occupied <= total) is centralized here rather than
// recomputed by callers.
type Service struct {
	store   Store
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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a property for a landlord.
func (s *Service) Create(ctx context.Context, landlordID id.UserID, name, city string, totalUnits int) (*models.Property, error) {
	property, err := models.NewProperty(id.NewPropertyID(), landlordID, name, city, totalUnits, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.store.Save(ctx, property); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create property")
	}
	return property, nil
}

// Get returns a property with its live occupancy.
func (s *Service) Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	property, err := s.store.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load property")
	}
	return property, nil
}

// ListByLandlord returns a landlord's properties.
func (s *Service) ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Property, error) {
	properties, err := s.store.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	return properties, nil
}

// Increment marks one more unit occupied, clamped at TotalUnits. The registry
// has already guaranteed at most one stay per tenant, so saturation here can
// only come from drift; it is logged and counted, never raised.
func (s *Service) Increment(ctx context.Context, propertyID id.PropertyID) (int, error) {
	return s.adjust(ctx, propertyID, +1, "increment")
}

// Decrement frees one unit, clamped at 0 with the same saturation handling.
func (s *Service) Decrement(ctx context.Context, propertyID id.PropertyID) (int, error) {
	return s.adjust(ctx, propertyID, -1, "decrement")
}

func (s *Service) adjust(ctx context.Context, propertyID id.PropertyID, delta int, direction string) (int, error) {
	occupied, total, saturated, err := s.store.Adjust(ctx, propertyID, delta)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to adjust occupancy")
	}
	if saturated {
		s.logger.WarnContext(ctx, "occupancy adjustment clamped",
			"property_id", propertyID.String(),
			"direction", direction,
			"occupied", occupied,
			"total", total,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveAdjust(direction, saturated)
	}
	return occupied, nil
}
