package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"domus/internal/billing/models"
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
	"domus/pkg/testutil"
)

type billingFixture struct {
	router     chi.Router
	landlordID id.UserID
	tenantID   id.UserID
	stayID     id.StayID
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stays := tenancystore.NewInMemoryStayStore()
	properties := propertysvc.New(propertystore.NewInMemory())
	registry := tenancyservice.New(tenancystore.NewInMemoryRequestStore(), stays, properties, identity.NewInMemoryStore())
	billing := billingservice.New(billingstore.NewInMemoryStore(), stays)
	history := ledger.NewPublisher(ledger.NewInMemoryStore())
	notifier := notify.New(notify.NewInMemoryStore())

	eng := engine.New(registry, properties, billing, history, notifier, engine.WithLogger(logger))

	router := chi.NewRouter()
	New(eng, logger).Register(router)

	landlordID := id.NewUserID()
	tenantID := id.NewUserID()
	stay := tenancymodels.NewTenantStay(
		id.NewStayID(), tenantID, landlordID, id.NewPropertyID(),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := stays.Save(context.Background(), stay); err != nil {
		t.Fatalf("save stay: %v", err)
	}

	return &billingFixture{
		router:     router,
		landlordID: landlordID,
		tenantID:   tenantID,
		stayID:     stay.ID,
	}
}

func (f *billingFixture) issuePayload() IssueBillPayload {
	return IssueBillPayload{
		StayID:  f.stayID.String(),
		Type:    "RENT",
		Amount:  1500,
		Month:   "March",
		Year:    2026,
		DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func (f *billingFixture) issue(t *testing.T) *models.Bill {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/bills", f.issuePayload())
	req = testutil.WithActor(req, f.landlordID.String(), id.RoleLandlord)

	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Bill](t, rr)
}

func TestHandleIssue(t *testing.T) {
	t.Run("creates a pending bill", func(t *testing.T) {
		f := newBillingFixture(t)
		bill := f.issue(t)

		if bill.Status != models.BillStatusPending {
			t.Fatalf("expected pending bill, got %s", bill.Status)
		}
		if bill.TenantID != f.tenantID {
			t.Fatal("bill not addressed to the stay's tenant")
		}
	})

	t.Run("tenants cannot issue", func(t *testing.T) {
		f := newBillingFixture(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/bills", f.issuePayload())
		req = testutil.WithActor(req, f.tenantID.String(), id.RoleTenant)

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("malformed stay id is rejected", func(t *testing.T) {
		f := newBillingFixture(t)
		payload := f.issuePayload()
		payload.StayID = "not-a-uuid"

		req := testutil.NewJSONRequest(t, http.MethodPost, "/bills", payload)
		req = testutil.WithActor(req, f.landlordID.String(), id.RoleLandlord)

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})

	t.Run("unknown bill type is rejected", func(t *testing.T) {
		f := newBillingFixture(t)
		payload := f.issuePayload()
		payload.Type = "GARBAGE"

		req := testutil.NewJSONRequest(t, http.MethodPost, "/bills", payload)
		req = testutil.WithActor(req, f.landlordID.String(), id.RoleLandlord)

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})
}

func TestHandleSettle(t *testing.T) {
	t.Run("marks the bill paid", func(t *testing.T) {
		f := newBillingFixture(t)
		bill := f.issue(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/bills/"+bill.ID.String()+"/settle", nil)
		req = testutil.WithActor(req, f.tenantID.String(), id.RoleTenant)

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		settled := testutil.UnmarshalResponse[models.Bill](t, rr)
		if settled.Status != models.BillStatusPaid {
			t.Fatalf("expected paid bill, got %s", settled.Status)
		}
	})

	t.Run("second settle conflicts", func(t *testing.T) {
		f := newBillingFixture(t)
		bill := f.issue(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/bills/"+bill.ID.String()+"/settle", nil)
		req = testutil.WithActor(req, f.tenantID.String(), id.RoleTenant)
		testutil.AssertStatus(t, testutil.DoRequest(f.router, req), http.StatusOK)

		req = testutil.NewJSONRequest(t, http.MethodPost, "/bills/"+bill.ID.String()+"/settle", nil)
		req = testutil.WithActor(req, f.tenantID.String(), id.RoleTenant)
		testutil.AssertStatusAndError(t, testutil.DoRequest(f.router, req), http.StatusConflict, "conflict")
	})

	t.Run("landlords cannot settle", func(t *testing.T) {
		f := newBillingFixture(t)
		bill := f.issue(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/bills/"+bill.ID.String()+"/settle", nil)
		req = testutil.WithActor(req, f.landlordID.String(), id.RoleLandlord)
		testutil.AssertStatusAndError(t, testutil.DoRequest(f.router, req), http.StatusForbidden, "forbidden")
	})
}

func TestHandleWithdraw(t *testing.T) {
	t.Run("removes an unpaid bill", func(t *testing.T) {
		f := newBillingFixture(t)
		bill := f.issue(t)

		req := testutil.NewRequest(t, http.MethodDelete, "/bills/"+bill.ID.String())
		req = testutil.WithActor(req, f.landlordID.String(), id.RoleLandlord)
		testutil.AssertStatus(t, testutil.DoRequest(f.router, req), http.StatusNoContent)

		list := testutil.NewRequest(t, http.MethodGet, "/bills")
		list = testutil.WithActor(list, f.landlordID.String(), id.RoleLandlord)
		rr := testutil.DoRequest(f.router, list)
		testutil.AssertStatus(t, rr, http.StatusOK)
		bills := testutil.UnmarshalResponse[[]models.Bill](t, rr)
		if len(*bills) != 0 {
			t.Fatalf("expected no bills, got %d", len(*bills))
		}
	})

	t.Run("paid bill cannot be withdrawn", func(t *testing.T) {
		f := newBillingFixture(t)
		bill := f.issue(t)

		settle := testutil.NewJSONRequest(t, http.MethodPost, "/bills/"+bill.ID.String()+"/settle", nil)
		settle = testutil.WithActor(settle, f.tenantID.String(), id.RoleTenant)
		testutil.AssertStatus(t, testutil.DoRequest(f.router, settle), http.StatusOK)

		req := testutil.NewRequest(t, http.MethodDelete, "/bills/"+bill.ID.String())
		req = testutil.WithActor(req, f.landlordID.String(), id.RoleLandlord)
		testutil.AssertStatusAndError(t, testutil.DoRequest(f.router, req), http.StatusConflict, "conflict")
	})
}

func TestHandleListByRole(t *testing.T) {
	f := newBillingFixture(t)
	f.issue(t)

	t.Run("tenant sees owed bills", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/bills")
		req = testutil.WithActor(req, f.tenantID.String(), id.RoleTenant)

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		bills := testutil.UnmarshalResponse[[]models.Bill](t, rr)
		if len(*bills) != 1 {
			t.Fatalf("expected 1 bill, got %d", len(*bills))
		}
	})

	t.Run("landlord sees issued bills", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/bills")
		req = testutil.WithActor(req, f.landlordID.String(), id.RoleLandlord)

		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		bills := testutil.UnmarshalResponse[[]models.Bill](t, rr)
		if len(*bills) != 1 {
			t.Fatalf("expected 1 bill, got %d", len(*bills))
		}
	})
}
