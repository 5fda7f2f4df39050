// Package engine is the orchestrator behind the public API. Each mutating
// operation is a saga over the registry, the occupancy counter, the history
// ledger and the notifier: the stores offer no cross-entity transaction, so a
// failure mid-sequence is never rolled back. It is reported as a
// PartialFailure naming what already happened, and notification is always the
// last step and never fails the operation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	billingmodels "domus/internal/billing/models"
	billingservice "domus/internal/billing/service"
	"domus/internal/engine/metrics"
	"domus/internal/ledger"
	"domus/internal/notify"
	propertymodels "domus/internal/property/models"
	tenancymodels "domus/internal/tenancy/models"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/requestcontext"
)

// Decision is a landlord's verdict on a verification request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionMoveOut Decision = "move_out"
)

type Registry interface {
	SubmitRequest(ctx context.Context, tenantID id.UserID, propertyID id.PropertyID, ident tenancymodels.Identity, joiningDate *time.Time) (*tenancymodels.VerificationRequest, error)
	Approve(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID) (*tenancymodels.VerificationRequest, *tenancymodels.TenantStay, error)
	Reject(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID, remarks string) (*tenancymodels.VerificationRequest, error)
	MoveOutByRequest(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID) (*tenancymodels.VerificationRequest, *tenancymodels.TenantStay, error)
	EndStay(ctx context.Context, actingLandlordID id.UserID, stayID id.StayID) (*tenancymodels.TenantStay, error)
	RevokeAccess(ctx context.Context, tenantID id.UserID) error
	GetActiveStay(ctx context.Context, tenantID id.UserID) (*tenancymodels.TenantStay, error)
	ListRequestsByLandlord(ctx context.Context, landlordID id.UserID) ([]*tenancymodels.VerificationRequest, error)
	ListRequestsByTenant(ctx context.Context, tenantID id.UserID) ([]*tenancymodels.VerificationRequest, error)
}

type Occupancy interface {
	Increment(ctx context.Context, propertyID id.PropertyID) (int, error)
	Decrement(ctx context.Context, propertyID id.PropertyID) (int, error)
	Get(ctx context.Context, propertyID id.PropertyID) (*propertymodels.Property, error)
}

type Billing interface {
	Issue(ctx context.Context, landlordID id.UserID, params billingservice.IssueParams) (*billingmodels.Bill, error)
	Settle(ctx context.Context, tenantID id.UserID, billID id.BillID) (*billingmodels.Bill, error)
	Withdraw(ctx context.Context, landlordID id.UserID, billID id.BillID) error
	ListByTenant(ctx context.Context, tenantID id.UserID) ([]*billingmodels.Bill, error)
	ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*billingmodels.Bill, error)
}

type History interface {
	Append(ctx context.Context, entry ledger.Entry) (ledger.Entry, error)
	ListByTenant(ctx context.Context, tenantID id.UserID) ([]ledger.Entry, error)
}

// Engine sequences the collaborators for each public operation.
type Engine struct {
	registry  Registry
	occupancy Occupancy
	billing   Billing
	history   History
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(e *Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New constructs an Engine.
func New(registry Registry, occupancy Occupancy, billing Billing, history History, notifier notify.Notifier, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		occupancy: occupancy,
		billing:   billing,
		history:   history,
		notifier:  notifier,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitRequest records a tenant's application. Single write, no saga.
func (e *Engine) SubmitRequest(ctx context.Context, tenantID id.UserID, propertyID id.PropertyID, ident tenancymodels.Identity, joiningDate *time.Time) (*tenancymodels.VerificationRequest, error) {
	request, err := e.registry.SubmitRequest(ctx, tenantID, propertyID, ident, joiningDate)
	e.observe("submit_request", err)
	return request, err
}

// DecideRequest applies a landlord's verdict and runs the decision's saga.
func (e *Engine) DecideRequest(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID, decision Decision, remarks string) (*tenancymodels.VerificationRequest, error) {
	var request *tenancymodels.VerificationRequest
	var err error
	label := "decide_" + string(decision)
	switch decision {
	case DecisionApprove:
		request, err = e.approve(ctx, actingLandlordID, requestID)
	case DecisionReject:
		request, err = e.reject(ctx, actingLandlordID, requestID, remarks)
	case DecisionMoveOut:
		request, err = e.moveOut(ctx, actingLandlordID, requestID)
	default:
		// Bound the metric label for garbage input.
		label = "decide_invalid"
		err = dErrors.New(dErrors.CodeValidation, "unknown decision")
	}
	e.observe(label, err)
	return request, err
}

func (e *Engine) approve(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID) (*tenancymodels.VerificationRequest, error) {
	request, stay, err := e.registry.Approve(ctx, actingLandlordID, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := e.occupancy.Increment(ctx, stay.PropertyID); err != nil {
		return request, e.partial(ctx, err, "stay created but occupancy update failed")
	}
	if _, err := e.history.Append(ctx, ledger.Entry{
		TenantID:    stay.TenantID,
		Type:        ledger.EntryJoined,
		Description: "joined property",
		CreatedBy:   actingLandlordID,
	}); err != nil {
		return request, e.partial(ctx, err, "stay created and occupancy updated but history append failed")
	}

	e.notifier.Notify(ctx, stay.TenantID, id.RoleTenant, notify.KindRequestApproved,
		"Application Approved", "Your application was approved. Welcome home.")
	return request, nil
}

func (e *Engine) reject(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID, remarks string) (*tenancymodels.VerificationRequest, error) {
	request, err := e.registry.Reject(ctx, actingLandlordID, requestID, remarks)
	if err != nil {
		return nil, err
	}

	body := "Your application was rejected."
	if remarks != "" {
		body = fmt.Sprintf("Your application was rejected: %s", remarks)
	}
	e.notifier.Notify(ctx, request.TenantID, id.RoleTenant, notify.KindRequestRejected,
		"Application Rejected", body)
	return request, nil
}

func (e *Engine) moveOut(ctx context.Context, actingLandlordID id.UserID, requestID id.RequestID) (*tenancymodels.VerificationRequest, error) {
	request, stay, err := e.registry.MoveOutByRequest(ctx, actingLandlordID, requestID)
	if err != nil {
		return nil, err
	}
	if err := e.recordMoveOut(ctx, stay, actingLandlordID); err != nil {
		return request, err
	}
	return request, nil
}

// EndStay terminates a stay directly, outside any request. RevokeAccess
// additionally marks the tenant's platform account inactive; it is an
// explicit input rather than an artifact of which endpoint was called.
func (e *Engine) EndStay(ctx context.Context, actingLandlordID id.UserID, stayID id.StayID, revokeAccess bool) (*tenancymodels.TenantStay, error) {
	stay, err := e.registry.EndStay(ctx, actingLandlordID, stayID)
	if err != nil {
		e.observe("end_stay", err)
		return nil, err
	}
	if err := e.recordMoveOut(ctx, stay, actingLandlordID); err != nil {
		e.observe("end_stay", err)
		return stay, err
	}
	if revokeAccess {
		if err := e.registry.RevokeAccess(ctx, stay.TenantID); err != nil {
			err = e.partial(ctx, err, "stay ended and history recorded but access revocation failed")
			e.observe("end_stay", err)
			return stay, err
		}
	}
	e.observe("end_stay", nil)
	return stay, nil
}

// recordMoveOut runs the shared tail of both termination paths: the stay is
// already MOVED_OUT when this is called.
func (e *Engine) recordMoveOut(ctx context.Context, stay *tenancymodels.TenantStay, actingLandlordID id.UserID) error {
	if _, err := e.occupancy.Decrement(ctx, stay.PropertyID); err != nil {
		return e.partial(ctx, err, "stay ended but occupancy update failed")
	}
	if _, err := e.history.Append(ctx, ledger.Entry{
		TenantID:    stay.TenantID,
		Type:        ledger.EntryMoveOut,
		Description: "moved out of property",
		CreatedBy:   actingLandlordID,
	}); err != nil {
		return e.partial(ctx, err, "stay ended and occupancy updated but history append failed")
	}

	e.notifier.Notify(ctx, stay.TenantID, id.RoleTenant, notify.KindMoveOut,
		"Move Out Recorded", "Your tenancy has ended.")
	return nil
}

// IssueBill charges a tenant through an active stay. Issuing is not a ledger
// fact; only the eventual payment is.
func (e *Engine) IssueBill(ctx context.Context, actingLandlordID id.UserID, params billingservice.IssueParams) (*billingmodels.Bill, error) {
	bill, err := e.billing.Issue(ctx, actingLandlordID, params)
	e.observe("issue_bill", err)
	if err != nil {
		return nil, err
	}

	e.notifier.Notify(ctx, bill.TenantID, id.RoleTenant, notify.KindNewBill,
		"New Bill", fmt.Sprintf("A %s bill of %.2f is due %s.",
			strings.ToLower(string(bill.Type)), bill.Amount, bill.DueDate.Format("2006-01-02")))
	return bill, nil
}

// SettleBill marks a bill paid and appends the payment to the tenant's
// history.
func (e *Engine) SettleBill(ctx context.Context, actingTenantID id.UserID, billID id.BillID) (*billingmodels.Bill, error) {
	bill, err := e.billing.Settle(ctx, actingTenantID, billID)
	if err != nil {
		e.observe("settle_bill", err)
		return nil, err
	}

	if _, err := e.history.Append(ctx, paymentEntry(bill, actingTenantID)); err != nil {
		err = e.partial(ctx, err, "bill settled but history append failed")
		e.observe("settle_bill", err)
		return bill, err
	}

	e.notifier.Notify(ctx, bill.LandlordID, id.RoleLandlord, notify.KindPaymentReceived,
		"Payment Received", fmt.Sprintf("A payment of %.2f was received.", bill.Amount))
	e.observe("settle_bill", nil)
	return bill, nil
}

// WithdrawBill deletes an unpaid bill. Deletion is a correction, not an
// event, so nothing reaches the ledger or the notifier.
func (e *Engine) WithdrawBill(ctx context.Context, actingLandlordID id.UserID, billID id.BillID) error {
	err := e.billing.Withdraw(ctx, actingLandlordID, billID)
	e.observe("withdraw_bill", err)
	return err
}

// paymentEntry maps a settled bill onto its history entry type.
func paymentEntry(bill *billingmodels.Bill, tenantID id.UserID) ledger.Entry {
	entryType := ledger.EntryPayment
	switch bill.Type {
	case billingmodels.BillRent:
		entryType = ledger.EntryRentPayment
	case billingmodels.BillUtility:
		entryType = ledger.EntryLightBill
	}
	return ledger.Entry{
		TenantID:    tenantID,
		Type:        entryType,
		Description: "bill paid",
		Amount:      bill.Amount,
		Month:       bill.Month,
		Year:        bill.Year,
		Units:       bill.Units,
		Status:      string(billingmodels.BillStatusPaid),
		CreatedBy:   tenantID,
	}
}

// GetActiveStay returns the tenant's current stay.
func (e *Engine) GetActiveStay(ctx context.Context, tenantID id.UserID) (*tenancymodels.TenantStay, error) {
	return e.registry.GetActiveStay(ctx, tenantID)
}

// GetOccupancy returns a property with its live occupancy counter.
func (e *Engine) GetOccupancy(ctx context.Context, propertyID id.PropertyID) (*propertymodels.Property, error) {
	return e.occupancy.Get(ctx, propertyID)
}

// ListHistory returns a tenant's ledger in insertion order.
func (e *Engine) ListHistory(ctx context.Context, tenantID id.UserID) ([]ledger.Entry, error) {
	return e.history.ListByTenant(ctx, tenantID)
}

// ListRequestsByLandlord returns a landlord's incoming requests.
func (e *Engine) ListRequestsByLandlord(ctx context.Context, landlordID id.UserID) ([]*tenancymodels.VerificationRequest, error) {
	return e.registry.ListRequestsByLandlord(ctx, landlordID)
}

// ListRequestsByTenant returns a tenant's submitted requests.
func (e *Engine) ListRequestsByTenant(ctx context.Context, tenantID id.UserID) ([]*tenancymodels.VerificationRequest, error) {
	return e.registry.ListRequestsByTenant(ctx, tenantID)
}

// ListBillsByTenant returns a tenant's bills.
func (e *Engine) ListBillsByTenant(ctx context.Context, tenantID id.UserID) ([]*billingmodels.Bill, error) {
	return e.billing.ListByTenant(ctx, tenantID)
}

// ListBillsByLandlord returns a landlord's issued bills.
func (e *Engine) ListBillsByLandlord(ctx context.Context, landlordID id.UserID) ([]*billingmodels.Bill, error) {
	return e.billing.ListByLandlord(ctx, landlordID)
}

func (e *Engine) partial(ctx context.Context, err error, message string) error {
	e.logger.ErrorContext(ctx, "operation left partial state",
		"detail", message,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodePartialFailure, message)
}

func (e *Engine) observe(operation string, err error) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case dErrors.HasCode(err, dErrors.CodePartialFailure):
		outcome = "partial"
	case err != nil:
		outcome = "error"
	}
	e.metrics.Observe(operation, outcome)
}
