//go:build integration

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
	"domus/pkg/testutil/containers"
)

type PostgresTenancySuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	requests *PostgresRequestStore
	stays    *PostgresStayStore
	ctx      context.Context
}

func TestPostgresTenancySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTenancySuite))
}

func (s *PostgresTenancySuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.requests = NewPostgresRequests(s.pg.DB)
	s.stays = NewPostgresStays(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresTenancySuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "verification_requests", "tenant_stays"))
}

func (s *PostgresTenancySuite) newRequest(tenantID id.UserID) *models.VerificationRequest {
	request, err := models.NewVerificationRequest(
		id.NewRequestID(), tenantID, id.NewUserID(), id.NewPropertyID(),
		models.Identity{
			FullName:      "Asha Verma",
			Mobile:        "9876543210",
			IDProofType:   "passport",
			IDProofNumber: "P1234567",
			City:          "Pune",
		}, nil, time.Now().UTC())
	s.Require().NoError(err)
	return request
}

func (s *PostgresTenancySuite) TestRequestRoundTrip() {
	joining := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	request := s.newRequest(id.NewUserID())
	request.JoiningDate = &joining
	s.Require().NoError(s.requests.Save(s.ctx, request))

	found, err := s.requests.FindByID(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(request.Identity, found.Identity)
	s.Equal(models.RequestStatusPending, found.Status)
	s.Require().NotNil(found.JoiningDate)
	s.True(found.JoiningDate.Equal(joining))
}

func (s *PostgresTenancySuite) TestOnePendingRequestIndex() {
	tenantID := id.NewUserID()
	first := s.newRequest(tenantID)
	s.Require().NoError(s.requests.Save(s.ctx, first))

	s.Run("second pending insert trips the partial index", func() {
		err := s.requests.Save(s.ctx, s.newRequest(tenantID))
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("updating the same row does not", func() {
		first.ApplyRejection("no vacancy")
		s.NoError(s.requests.Save(s.ctx, first))
	})

	s.Run("a decided request frees the slot", func() {
		s.NoError(s.requests.Save(s.ctx, s.newRequest(tenantID)))
	})
}

func (s *PostgresTenancySuite) TestFindPendingByTenant() {
	tenantID := id.NewUserID()

	_, err := s.requests.FindPendingByTenant(s.ctx, tenantID)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	request := s.newRequest(tenantID)
	s.Require().NoError(s.requests.Save(s.ctx, request))

	found, err := s.requests.FindPendingByTenant(s.ctx, tenantID)
	s.Require().NoError(err)
	s.Equal(request.ID, found.ID)
}

func (s *PostgresTenancySuite) TestListByLandlordOrdering() {
	landlordID := id.NewUserID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	later := s.newRequest(id.NewUserID())
	later.LandlordID = landlordID
	later.SubmittedAt = base.Add(time.Hour)
	earlier := s.newRequest(id.NewUserID())
	earlier.LandlordID = landlordID
	earlier.SubmittedAt = base
	s.Require().NoError(s.requests.Save(s.ctx, later))
	s.Require().NoError(s.requests.Save(s.ctx, earlier))

	requests, err := s.requests.ListByLandlord(s.ctx, landlordID)
	s.Require().NoError(err)
	s.Require().Len(requests, 2)
	s.Equal(earlier.ID, requests[0].ID)
	s.Equal(later.ID, requests[1].ID)
}

func (s *PostgresTenancySuite) TestStayRoundTrip() {
	stay := models.NewTenantStay(
		id.NewStayID(), id.NewUserID(), id.NewUserID(), id.NewPropertyID(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.stays.Save(s.ctx, stay))

	found, err := s.stays.FindByID(s.ctx, stay.ID)
	s.Require().NoError(err)
	s.Equal(models.StayStatusActive, found.Status)
	s.Nil(found.MoveOutDate)

	moveOut := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	stay.ApplyEnd(moveOut)
	s.Require().NoError(s.stays.Save(s.ctx, stay))

	found, err = s.stays.FindByID(s.ctx, stay.ID)
	s.Require().NoError(err)
	s.Equal(models.StayStatusMovedOut, found.Status)
	s.Require().NotNil(found.MoveOutDate)
	s.True(found.MoveOutDate.Equal(moveOut))
}

func (s *PostgresTenancySuite) TestOneActiveStayIndex() {
	tenantID := id.NewUserID()
	joinDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first := models.NewTenantStay(id.NewStayID(), tenantID, id.NewUserID(), id.NewPropertyID(), joinDate)
	s.Require().NoError(s.stays.Save(s.ctx, first))

	s.Run("second active insert trips the partial index", func() {
		second := models.NewTenantStay(id.NewStayID(), tenantID, id.NewUserID(), id.NewPropertyID(), joinDate)
		err := s.stays.Save(s.ctx, second)
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("an ended stay frees the slot", func() {
		first.ApplyEnd(joinDate.AddDate(0, 6, 0))
		s.Require().NoError(s.stays.Save(s.ctx, first))

		second := models.NewTenantStay(id.NewStayID(), tenantID, id.NewUserID(), id.NewPropertyID(), joinDate.AddDate(1, 0, 0))
		s.NoError(s.stays.Save(s.ctx, second))
	})
}

func (s *PostgresTenancySuite) TestFindActiveByTenant() {
	tenantID := id.NewUserID()

	_, err := s.stays.FindActiveByTenant(s.ctx, tenantID)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	stay := models.NewTenantStay(
		id.NewStayID(), tenantID, id.NewUserID(), id.NewPropertyID(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.stays.Save(s.ctx, stay))

	found, err := s.stays.FindActiveByTenant(s.ctx, tenantID)
	s.Require().NoError(err)
	s.Equal(stay.ID, found.ID)
}
