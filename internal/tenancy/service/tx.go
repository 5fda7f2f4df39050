package service

import (
	"context"
	"sync"
	"time"

	id "domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

// tenantLocks serializes registry mutations per tenant. The stores provide no
// multi-record transaction, so the read-check-write sequences behind the
// one-pending-request and one-active-stay invariants run under a sharded
// mutex keyed by tenant id. Sharding keeps unrelated tenants from contending
// on a single global lock.
const numTenantShards = 64

// defaultLockTimeout bounds how long a registry mutation may run.
const defaultLockTimeout = 5 * time.Second

type tenantLocks struct {
	shards  [numTenantShards]sync.Mutex
	timeout time.Duration
}

func newTenantLocks() *tenantLocks {
	return &tenantLocks{timeout: defaultLockTimeout}
}

func (l *tenantLocks) run(ctx context.Context, tenantID id.UserID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry mutation aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	shard := hashTenantID(tenantID) % numTenantShards
	l.shards[shard].Lock()
	defer l.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry mutation aborted: context cancelled")
	}

	return fn(ctx)
}

// hashTenantID uses FNV-1a over the id bytes for even shard distribution.
func hashTenantID(tenantID id.UserID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	s := tenantID.String()
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
