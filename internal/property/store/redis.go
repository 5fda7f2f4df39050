package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"domus/internal/property/models"
	id "domus/pkg/domain"
)

// adjustScript applies a clamped delta server-side so concurrent adjustments
// from multiple nodes cannot interleave between read and write.
var adjustScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local delta = tonumber(ARGV[1])
local total = tonumber(ARGV[2])
local next = cur + delta
local saturated = 0
if next > total then
	next = total
	saturated = 1
end
if next < 0 then
	next = 0
	saturated = 1
end
redis.call('SET', KEYS[1], next)
return {next, saturated}
`)

// RedisCounter layers a Redis-backed occupancy counter over a property record
// store. Records (including the fixed TotalUnits) stay in the record store;
// Redis is authoritative for the live occupied count, which multi-node
// deployments adjust atomically.
type RedisCounter struct {
	records RecordStore
	client  redis.Scripter
	reader  redis.Cmdable
}

// RecordStore is the subset of the property store the counter delegates to.
type RecordStore interface {
	Save(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Property, error)
}

func NewRedisCounter(records RecordStore, client *redis.Client) *RedisCounter {
	return &RedisCounter{records: records, client: client, reader: client}
}

func (s *RedisCounter) Save(ctx context.Context, property *models.Property) error {
	return s.records.Save(ctx, property)
}

// FindByID returns the stored record with the occupied count overlaid from
// the live counter.
func (s *RedisCounter) FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	property, err := s.records.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.reader.Get(ctx, occupancyKey(propertyID)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read occupancy counter: %w", err)
	}
	if err == nil {
		property.OccupiedUnits = occupied
	}
	return property, nil
}

func (s *RedisCounter) ListByLandlord(ctx context.Context, landlordID id.UserID) ([]*models.Property, error) {
	return s.records.ListByLandlord(ctx, landlordID)
}

func (s *RedisCounter) Adjust(ctx context.Context, propertyID id.PropertyID, delta int) (occupied, total int, saturated bool, err error) {
	property, err := s.records.FindByID(ctx, propertyID)
	if err != nil {
		return 0, 0, false, err
	}

	res, err := adjustScript.Run(ctx, s.client,
		[]string{occupancyKey(propertyID)}, delta, property.TotalUnits).Slice()
	if err != nil {
		return 0, 0, false, fmt.Errorf("adjust occupancy counter: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, false, fmt.Errorf("adjust occupancy counter: unexpected reply %v", res)
	}

	next, _ := res[0].(int64)
	sat, _ := res[1].(int64)
	return int(next), property.TotalUnits, sat == 1, nil
}

func occupancyKey(propertyID id.PropertyID) string {
	return "domus:occupancy:" + propertyID.String()
}
