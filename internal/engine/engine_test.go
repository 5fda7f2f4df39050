package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	billingmodels "domus/internal/billing/models"
	billingservice "domus/internal/billing/service"
	billingstore "domus/internal/billing/store"
	"domus/internal/engine"
	"domus/internal/identity"
	"domus/internal/ledger"
	"domus/internal/notify"
	propertysvc "domus/internal/property/service"
	propertystore "domus/internal/property/store"
	tenancymodels "domus/internal/tenancy/models"
	tenancyservice "domus/internal/tenancy/service"
	tenancystore "domus/internal/tenancy/store"
	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/requestcontext"
)

// recordingNotifier captures deliveries instead of storing them.
type recordingNotifier struct {
	deliveries []recordedDelivery
}

type recordedDelivery struct {
	userID id.UserID
	role   id.Role
	kind   notify.Kind
	body   string
}

func (r *recordingNotifier) Notify(_ context.Context, userID id.UserID, role id.Role, kind notify.Kind, _, body string) {
	r.deliveries = append(r.deliveries, recordedDelivery{userID: userID, role: role, kind: kind, body: body})
}

// flakyOccupancy injects counter failures into an otherwise working stack.
type flakyOccupancy struct {
	engine.Occupancy
	failIncrement bool
	failDecrement bool
}

func (f *flakyOccupancy) Increment(ctx context.Context, propertyID id.PropertyID) (int, error) {
	if f.failIncrement {
		return 0, errors.New("counter backend down")
	}
	return f.Occupancy.Increment(ctx, propertyID)
}

func (f *flakyOccupancy) Decrement(ctx context.Context, propertyID id.PropertyID) (int, error) {
	if f.failDecrement {
		return 0, errors.New("counter backend down")
	}
	return f.Occupancy.Decrement(ctx, propertyID)
}

// flakyHistory injects append failures.
type flakyHistory struct {
	engine.History
	fail bool
}

func (f *flakyHistory) Append(ctx context.Context, entry ledger.Entry) (ledger.Entry, error) {
	if f.fail {
		return ledger.Entry{}, errors.New("ledger backend down")
	}
	return f.History.Append(ctx, entry)
}

// brokenUserStore serves reads but refuses writes.
type brokenUserStore struct {
	identity.Store
}

func (b brokenUserStore) Save(context.Context, *identity.User) error {
	return errors.New("user store down")
}

type EngineSuite struct {
	suite.Suite

	users      *identity.InMemoryStore
	requests   *tenancystore.InMemoryRequestStore
	stays      *tenancystore.InMemoryStayStore
	ledgerMem  *ledger.InMemoryStore
	properties *propertysvc.Service
	occupancy  *flakyOccupancy
	history    *flakyHistory
	notifier   *recordingNotifier
	eng        *engine.Engine

	landlordID id.UserID
	tenantID   id.UserID
	propertyID id.PropertyID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.users = identity.NewInMemoryStore()
	s.requests = tenancystore.NewInMemoryRequestStore()
	s.stays = tenancystore.NewInMemoryStayStore()
	s.ledgerMem = ledger.NewInMemoryStore()
	s.properties = propertysvc.New(propertystore.NewInMemory())
	s.notifier = &recordingNotifier{}

	registry := tenancyservice.New(s.requests, s.stays, s.properties, s.users)
	billing := billingservice.New(billingstore.NewInMemoryStore(), s.stays)
	s.occupancy = &flakyOccupancy{Occupancy: s.properties}
	s.history = &flakyHistory{History: ledger.NewPublisher(s.ledgerMem)}

	s.eng = engine.New(registry, s.occupancy, billing, s.history, s.notifier)

	s.landlordID = id.NewUserID()
	s.tenantID = id.NewUserID()
	property, err := s.properties.Create(context.Background(), s.landlordID, "Shanti Villa", "Pune", 4)
	s.Require().NoError(err)
	s.propertyID = property.ID

	now := time.Now()
	s.Require().NoError(s.users.Save(context.Background(), &identity.User{
		ID: s.tenantID, Name: "Asha Verma", Role: id.RoleTenant,
		Status: identity.UserStatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

func (s *EngineSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *EngineSuite) submit() *tenancymodels.VerificationRequest {
	request, err := s.eng.SubmitRequest(s.ctx(), s.tenantID, s.propertyID, tenancymodels.Identity{
		FullName:      "Asha Verma",
		Mobile:        "9876543210",
		IDProofType:   "passport",
		IDProofNumber: "P1234567",
		City:          "Pune",
	}, nil)
	s.Require().NoError(err)
	return request
}

func (s *EngineSuite) approve(requestID id.RequestID) {
	_, err := s.eng.DecideRequest(s.ctx(), s.landlordID, requestID, engine.DecisionApprove, "")
	s.Require().NoError(err)
}

func (s *EngineSuite) occupied() int {
	property, err := s.properties.Get(context.Background(), s.propertyID)
	s.Require().NoError(err)
	return property.OccupiedUnits
}

func (s *EngineSuite) entries() []ledger.Entry {
	entries, err := s.eng.ListHistory(s.ctx(), s.tenantID)
	s.Require().NoError(err)
	return entries
}

func (s *EngineSuite) TestApproveSaga() {
	request := s.submit()
	s.approve(request.ID)

	// Exactly one stay, one increment, one JOINED entry, one notification.
	stay, err := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.Require().NoError(err)
	s.Equal(tenancymodels.StayStatusActive, stay.Status)

	s.Equal(1, s.occupied())

	entries := s.entries()
	s.Require().Len(entries, 1)
	s.Equal(ledger.EntryJoined, entries[0].Type)
	s.Equal(s.landlordID, entries[0].CreatedBy)

	s.Require().Len(s.notifier.deliveries, 1)
	s.Equal(notify.KindRequestApproved, s.notifier.deliveries[0].kind)
	s.Equal(s.tenantID, s.notifier.deliveries[0].userID)
}

func (s *EngineSuite) TestRejectSaga() {
	request := s.submit()

	decided, err := s.eng.DecideRequest(s.ctx(), s.landlordID, request.ID, engine.DecisionReject, "no vacancy")
	s.Require().NoError(err)
	s.Equal(tenancymodels.RequestStatusRejected, decided.Status)

	// Rejection is not a ledger fact and touches no counters.
	s.Equal(0, s.occupied())
	s.Empty(s.entries())

	s.Require().Len(s.notifier.deliveries, 1)
	s.Equal(notify.KindRequestRejected, s.notifier.deliveries[0].kind)
	s.Contains(s.notifier.deliveries[0].body, "no vacancy")
}

func (s *EngineSuite) TestMoveOutSaga() {
	request := s.submit()
	s.approve(request.ID)

	decided, err := s.eng.DecideRequest(s.ctx(), s.landlordID, request.ID, engine.DecisionMoveOut, "")
	s.Require().NoError(err)
	s.Equal(tenancymodels.RequestStatusMovedOut, decided.Status)

	s.Equal(0, s.occupied())

	entries := s.entries()
	s.Require().Len(entries, 2)
	s.Equal(ledger.EntryMoveOut, entries[1].Type)

	s.Equal(notify.KindMoveOut, s.notifier.deliveries[len(s.notifier.deliveries)-1].kind)

	// The tenant keeps platform access on the request path.
	user, err := s.users.FindByID(context.Background(), s.tenantID)
	s.Require().NoError(err)
	s.True(user.IsActive())
}

func (s *EngineSuite) TestApprovePartialOnOccupancy() {
	request := s.submit()
	s.occupancy.failIncrement = true

	_, err := s.eng.DecideRequest(s.ctx(), s.landlordID, request.ID, engine.DecisionApprove, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePartialFailure))
	s.Contains(dErrors.MessageOf(err), "stay created but occupancy update failed")

	// The stay write is not rolled back; later steps never ran.
	_, stayErr := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.NoError(stayErr)
	s.Empty(s.entries())
	s.Empty(s.notifier.deliveries)
}

func (s *EngineSuite) TestApprovePartialOnHistory() {
	request := s.submit()
	s.history.fail = true

	_, err := s.eng.DecideRequest(s.ctx(), s.landlordID, request.ID, engine.DecisionApprove, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePartialFailure))
	s.Contains(dErrors.MessageOf(err), "occupancy updated but history append failed")

	s.Equal(1, s.occupied())
	s.Empty(s.notifier.deliveries)
}

func (s *EngineSuite) TestEndStayRevokesAccess() {
	request := s.submit()
	s.approve(request.ID)
	stay, err := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.Require().NoError(err)

	ended, err := s.eng.EndStay(s.ctx(), s.landlordID, stay.ID, true)
	s.Require().NoError(err)
	s.Equal(tenancymodels.StayStatusMovedOut, ended.Status)

	s.Equal(0, s.occupied())
	s.Equal(ledger.EntryMoveOut, s.entries()[1].Type)

	user, err := s.users.FindByID(context.Background(), s.tenantID)
	s.Require().NoError(err)
	s.False(user.IsActive())
}

func (s *EngineSuite) TestEndStayKeepsAccessWithoutRevoke() {
	request := s.submit()
	s.approve(request.ID)
	stay, err := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.Require().NoError(err)

	_, err = s.eng.EndStay(s.ctx(), s.landlordID, stay.ID, false)
	s.Require().NoError(err)

	user, err := s.users.FindByID(context.Background(), s.tenantID)
	s.Require().NoError(err)
	s.True(user.IsActive())
}

func (s *EngineSuite) TestEndStayPartialOnRevocation() {
	// Rebuild the registry with a user store that refuses writes.
	registry := tenancyservice.New(s.requests, s.stays, s.properties, brokenUserStore{Store: s.users})
	billing := billingservice.New(billingstore.NewInMemoryStore(), s.stays)
	eng := engine.New(registry, s.occupancy, billing, s.history, s.notifier)

	request := s.submit()
	s.approve(request.ID)
	stay, err := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.Require().NoError(err)

	ended, err := eng.EndStay(s.ctx(), s.landlordID, stay.ID, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePartialFailure))
	s.Contains(dErrors.MessageOf(err), "access revocation failed")

	// The termination itself stands.
	s.Require().NotNil(ended)
	s.Equal(tenancymodels.StayStatusMovedOut, ended.Status)
	s.Equal(0, s.occupied())
}

func (s *EngineSuite) TestBillLifecycle() {
	request := s.submit()
	s.approve(request.ID)
	stay, err := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.Require().NoError(err)

	bill, err := s.eng.IssueBill(s.ctx(), s.landlordID, billingservice.IssueParams{
		StayID:  stay.ID,
		Type:    billingmodels.BillRent,
		Amount:  1500,
		Month:   "March",
		Year:    2026,
		DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	s.Equal(notify.KindNewBill, s.notifier.deliveries[len(s.notifier.deliveries)-1].kind)

	settled, err := s.eng.SettleBill(s.ctx(), s.tenantID, bill.ID)
	s.Require().NoError(err)
	s.NotNil(settled.PaidAt)

	entries := s.entries()
	last := entries[len(entries)-1]
	s.Equal(ledger.EntryRentPayment, last.Type)
	s.Equal(1500.0, last.Amount)
	s.Equal("March", last.Month)

	lastDelivery := s.notifier.deliveries[len(s.notifier.deliveries)-1]
	s.Equal(notify.KindPaymentReceived, lastDelivery.kind)
	s.Equal(s.landlordID, lastDelivery.userID)
	s.Equal(id.RoleLandlord, lastDelivery.role)
}

func (s *EngineSuite) TestSettlePartialOnHistory() {
	request := s.submit()
	s.approve(request.ID)
	stay, err := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.Require().NoError(err)

	bill, err := s.eng.IssueBill(s.ctx(), s.landlordID, billingservice.IssueParams{
		StayID: stay.ID, Type: billingmodels.BillRent, Amount: 1500,
		DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	s.history.fail = true
	notificationsBefore := len(s.notifier.deliveries)

	settled, err := s.eng.SettleBill(s.ctx(), s.tenantID, bill.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePartialFailure))
	s.Contains(dErrors.MessageOf(err), "bill settled but history append failed")
	s.Require().NotNil(settled)
	s.NotNil(settled.PaidAt)
	s.Len(s.notifier.deliveries, notificationsBefore)
}

func (s *EngineSuite) TestWithdrawBillIsSilent() {
	request := s.submit()
	s.approve(request.ID)
	stay, err := s.eng.GetActiveStay(s.ctx(), s.tenantID)
	s.Require().NoError(err)

	bill, err := s.eng.IssueBill(s.ctx(), s.landlordID, billingservice.IssueParams{
		StayID: stay.ID, Type: billingmodels.BillRent, Amount: 1500,
		DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	entriesBefore := len(s.entries())
	notificationsBefore := len(s.notifier.deliveries)

	s.Require().NoError(s.eng.WithdrawBill(s.ctx(), s.landlordID, bill.ID))

	s.Len(s.entries(), entriesBefore)
	s.Len(s.notifier.deliveries, notificationsBefore)

	bills, err := s.eng.ListBillsByLandlord(s.ctx(), s.landlordID)
	s.Require().NoError(err)
	s.Empty(bills)
}

func (s *EngineSuite) TestInvalidDecision() {
	request := s.submit()
	_, err := s.eng.DecideRequest(s.ctx(), s.landlordID, request.ID, engine.Decision("escalate"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLedgerIsAppendOnly(t *testing.T) {
	store := ledger.NewInMemoryStore()
	publisher := ledger.NewPublisher(store)
	tenantID := id.NewUserID()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := publisher.Append(ctx, ledger.Entry{
			TenantID:    tenantID,
			Type:        ledger.EntryRemark,
			Description: "remark",
			CreatedBy:   id.NewUserID(),
		})
		require.NoError(t, err)
	}

	entries, err := publisher.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Mutating a returned slice must not affect the stored entries.
	entries[0].Description = "tampered"
	again, err := publisher.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, "remark", again[0].Description)
}
