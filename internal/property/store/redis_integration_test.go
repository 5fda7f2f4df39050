//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"domus/internal/property/models"
	id "domus/pkg/domain"
	"domus/pkg/testutil/containers"
)

type RedisCounterSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	records *InMemory
	counter *RedisCounter
	ctx     context.Context
}

func TestRedisCounterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCounterSuite))
}

func (s *RedisCounterSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *RedisCounterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.records = NewInMemory()
	s.counter = NewRedisCounter(s.records, s.redis.Client)
}

func (s *RedisCounterSuite) newProperty(totalUnits int) *models.Property {
	property, err := models.NewProperty(
		id.NewPropertyID(), id.NewUserID(), "Shanti Villa", "Pune", totalUnits, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.counter.Save(s.ctx, property))
	return property
}

func (s *RedisCounterSuite) TestAdjust() {
	property := s.newProperty(4)

	occupied, total, saturated, err := s.counter.Adjust(s.ctx, property.ID, 1)
	s.Require().NoError(err)
	s.Equal(1, occupied)
	s.Equal(4, total)
	s.False(saturated)

	occupied, _, saturated, err = s.counter.Adjust(s.ctx, property.ID, -1)
	s.Require().NoError(err)
	s.Equal(0, occupied)
	s.False(saturated)
}

func (s *RedisCounterSuite) TestClampAtTotal() {
	property := s.newProperty(2)
	for i := 0; i < 2; i++ {
		_, _, _, err := s.counter.Adjust(s.ctx, property.ID, 1)
		s.Require().NoError(err)
	}

	occupied, _, saturated, err := s.counter.Adjust(s.ctx, property.ID, 1)
	s.Require().NoError(err)
	s.Equal(2, occupied)
	s.True(saturated)
}

func (s *RedisCounterSuite) TestClampAtZero() {
	property := s.newProperty(2)

	occupied, _, saturated, err := s.counter.Adjust(s.ctx, property.ID, -1)
	s.Require().NoError(err)
	s.Equal(0, occupied)
	s.True(saturated)
}

func (s *RedisCounterSuite) TestFindByIDOverlaysLiveCount() {
	property := s.newProperty(4)

	s.Run("no counter key leaves the stored count", func() {
		found, err := s.counter.FindByID(s.ctx, property.ID)
		s.Require().NoError(err)
		s.Equal(0, found.OccupiedUnits)
	})

	s.Run("live count wins once the counter exists", func() {
		_, _, _, err := s.counter.Adjust(s.ctx, property.ID, 3)
		s.Require().NoError(err)

		found, err := s.counter.FindByID(s.ctx, property.ID)
		s.Require().NoError(err)
		s.Equal(3, found.OccupiedUnits)
	})
}

func (s *RedisCounterSuite) TestConcurrentAdjustments() {
	property := s.newProperty(8)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, _ = s.counter.Adjust(s.ctx, property.ID, 1)
		}()
	}
	wg.Wait()

	found, err := s.counter.FindByID(s.ctx, property.ID)
	s.Require().NoError(err)
	s.Equal(8, found.OccupiedUnits)
}
