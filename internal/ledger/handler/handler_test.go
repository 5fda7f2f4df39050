package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"domus/internal/ledger"
	id "domus/pkg/domain"
	"domus/pkg/testutil"
)

// historyService adapts the publisher's read side to the handler contract the
// orchestrator normally fills.
type historyService struct {
	publisher *ledger.Publisher
}

func (s historyService) ListHistory(ctx context.Context, tenantID id.UserID) ([]ledger.Entry, error) {
	return s.publisher.ListByTenant(ctx, tenantID)
}

func newRouter(t *testing.T, publisher *ledger.Publisher) chi.Router {
	t.Helper()
	router := chi.NewRouter()
	New(historyService{publisher: publisher}, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)
	return router
}

func TestHandleList(t *testing.T) {
	tenantID := id.NewUserID()
	publisher := ledger.NewPublisher(ledger.NewInMemoryStore())
	_, err := publisher.Append(context.Background(), ledger.Entry{
		TenantID:    tenantID,
		Type:        ledger.EntryJoined,
		Description: "joined property",
		CreatedBy:   id.NewUserID(),
	})
	if err != nil {
		t.Fatalf("append entry: %v", err)
	}
	router := newRouter(t, publisher)

	t.Run("tenant reads own history", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/tenants/"+tenantID.String()+"/history")
		req = testutil.WithActor(req, tenantID.String(), id.RoleTenant)

		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		entries := testutil.UnmarshalResponse[[]ledger.Entry](t, rr)
		if len(*entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(*entries))
		}
	})

	t.Run("tenant cannot read another tenant's history", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/tenants/"+tenantID.String()+"/history")
		req = testutil.WithActor(req, id.NewUserID().String(), id.RoleTenant)

		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("landlord reads any tenant's history", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/tenants/"+tenantID.String()+"/history")
		req = testutil.WithActor(req, id.NewUserID().String(), id.RoleLandlord)

		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("malformed tenant id is rejected", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/tenants/not-a-uuid/history")
		req = testutil.WithActor(req, tenantID.String(), id.RoleLandlord)

		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})
}
