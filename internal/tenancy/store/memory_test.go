package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"domus/internal/tenancy/models"
	id "domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

type RequestStoreSuite struct {
	suite.Suite
	store *InMemoryRequestStore
	ctx   context.Context
}

func TestRequestStoreSuite(t *testing.T) {
	suite.Run(t, new(RequestStoreSuite))
}

func (s *RequestStoreSuite) SetupTest() {
	s.store = NewInMemoryRequestStore()
	s.ctx = context.Background()
}

func (s *RequestStoreSuite) newRequest(tenantID, landlordID id.UserID, submittedAt time.Time) *models.VerificationRequest {
	request, err := models.NewVerificationRequest(
		id.NewRequestID(), tenantID, landlordID, id.NewPropertyID(),
		models.Identity{
			FullName:      "Asha Verma",
			Mobile:        "9876543210",
			IDProofType:   "passport",
			IDProofNumber: "P1234567",
			City:          "Pune",
		}, nil, submittedAt)
	s.Require().NoError(err)
	return request
}

func (s *RequestStoreSuite) TestSaveAndFind() {
	s.Run("round trips a request", func() {
		request := s.newRequest(id.NewUserID(), id.NewUserID(), time.Now())
		s.Require().NoError(s.store.Save(s.ctx, request))

		found, err := s.store.FindByID(s.ctx, request.ID)
		s.Require().NoError(err)
		s.Equal(request.ID, found.ID)
		s.Equal(request.Identity, found.Identity)
	})

	s.Run("mutating the returned copy does not touch the stored record", func() {
		request := s.newRequest(id.NewUserID(), id.NewUserID(), time.Now())
		s.Require().NoError(s.store.Save(s.ctx, request))

		found, err := s.store.FindByID(s.ctx, request.ID)
		s.Require().NoError(err)
		found.Remarks = "tampered"

		again, err := s.store.FindByID(s.ctx, request.ID)
		s.Require().NoError(err)
		s.Empty(again.Remarks)
	})

	s.Run("missing request is a sentinel", func() {
		_, err := s.store.FindByID(s.ctx, id.NewRequestID())
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *RequestStoreSuite) TestFindPendingByTenant() {
	tenantID := id.NewUserID()

	s.Run("no pending request is a sentinel", func() {
		_, err := s.store.FindPendingByTenant(s.ctx, tenantID)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("pending request is found", func() {
		request := s.newRequest(tenantID, id.NewUserID(), time.Now())
		s.Require().NoError(s.store.Save(s.ctx, request))

		found, err := s.store.FindPendingByTenant(s.ctx, tenantID)
		s.Require().NoError(err)
		s.Equal(request.ID, found.ID)
	})

	s.Run("decided request no longer matches", func() {
		request, err := s.store.FindPendingByTenant(s.ctx, tenantID)
		s.Require().NoError(err)
		s.Require().NoError(request.CanReject())
		request.ApplyRejection("no vacancy")
		s.Require().NoError(s.store.Save(s.ctx, request))

		_, err = s.store.FindPendingByTenant(s.ctx, tenantID)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *RequestStoreSuite) TestListOrdering() {
	landlordID := id.NewUserID()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	later := s.newRequest(id.NewUserID(), landlordID, base.AddDate(0, 0, 2))
	earlier := s.newRequest(id.NewUserID(), landlordID, base)
	s.Require().NoError(s.store.Save(s.ctx, later))
	s.Require().NoError(s.store.Save(s.ctx, earlier))

	requests, err := s.store.ListByLandlord(s.ctx, landlordID)
	s.Require().NoError(err)
	s.Require().Len(requests, 2)
	s.Equal(earlier.ID, requests[0].ID)
	s.Equal(later.ID, requests[1].ID)
}

type StayStoreSuite struct {
	suite.Suite
	store *InMemoryStayStore
	ctx   context.Context
}

func TestStayStoreSuite(t *testing.T) {
	suite.Run(t, new(StayStoreSuite))
}

func (s *StayStoreSuite) SetupTest() {
	s.store = NewInMemoryStayStore()
	s.ctx = context.Background()
}

func (s *StayStoreSuite) TestFindActiveByTenant() {
	tenantID := id.NewUserID()
	joinDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s.Run("no stay is a sentinel", func() {
		_, err := s.store.FindActiveByTenant(s.ctx, tenantID)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("active stay is found", func() {
		stay := models.NewTenantStay(id.NewStayID(), tenantID, id.NewUserID(), id.NewPropertyID(), joinDate)
		s.Require().NoError(s.store.Save(s.ctx, stay))

		found, err := s.store.FindActiveByTenant(s.ctx, tenantID)
		s.Require().NoError(err)
		s.Equal(stay.ID, found.ID)
	})

	s.Run("ended stay no longer matches", func() {
		stay, err := s.store.FindActiveByTenant(s.ctx, tenantID)
		s.Require().NoError(err)
		stay.ApplyEnd(joinDate.AddDate(0, 6, 0))
		s.Require().NoError(s.store.Save(s.ctx, stay))

		_, err = s.store.FindActiveByTenant(s.ctx, tenantID)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *StayStoreSuite) TestListByTenantOrdering() {
	tenantID := id.NewUserID()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	second := models.NewTenantStay(id.NewStayID(), tenantID, id.NewUserID(), id.NewPropertyID(), base.AddDate(1, 0, 0))
	first := models.NewTenantStay(id.NewStayID(), tenantID, id.NewUserID(), id.NewPropertyID(), base)
	first.ApplyEnd(base.AddDate(0, 6, 0))
	s.Require().NoError(s.store.Save(s.ctx, second))
	s.Require().NoError(s.store.Save(s.ctx, first))

	stays, err := s.store.ListByTenant(s.ctx, tenantID)
	s.Require().NoError(err)
	s.Require().Len(stays, 2)
	s.Equal(first.ID, stays[0].ID)
	s.Equal(second.ID, stays[1].ID)
}
