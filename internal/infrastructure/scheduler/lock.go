// Package scheduler runs the job queue: a fixed worker pool pulling pending
// jobs, a dispatcher that decrypts credentials and executes the right
// orchestrator, a recovery sweep for stuck jobs and a cron trigger that
// materializes schedules into jobs.
package scheduler

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/syncbridge/backend/internal/domain/sync"
)

// defaultLockTTL caps how long a run lock can outlive a crashed worker.
const defaultLockTTL = 2 * time.Hour

// RunLock provides mutual exclusion across jobs for the same (tenant, sync
// kind). Orchestrators do not enforce this themselves; the dispatcher takes
// the lock before running and releases it afterwards.
type RunLock interface {
	// Acquire takes the lock. Returns false when another run holds it.
	Acquire(ctx context.Context, tenantID uuid.UUID, syncType sync.SyncType) (bool, error)

	// Release frees the lock.
	Release(ctx context.Context, tenantID uuid.UUID, syncType sync.SyncType) error
}

func lockKey(tenantID uuid.UUID, syncType sync.SyncType) string {
	return fmt.Sprintf("sync:run:%s:%s", tenantID, syncType.WatermarkKey())
}

// RedisRunLock implements RunLock with SET NX and a TTL so a crashed worker
// cannot hold a tenant's sync hostage forever.
type RedisRunLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRunLock creates a run lock on an existing Redis client.
func NewRedisRunLock(client *redis.Client) *RedisRunLock {
	return &RedisRunLock{client: client, ttl: defaultLockTTL}
}

func (l *RedisRunLock) Acquire(ctx context.Context, tenantID uuid.UUID, syncType sync.SyncType) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(tenantID, syncType), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("scheduler: acquire run lock: %w", err)
	}
	return ok, nil
}

func (l *RedisRunLock) Release(ctx context.Context, tenantID uuid.UUID, syncType sync.SyncType) error {
	if err := l.client.Del(ctx, lockKey(tenantID, syncType)).Err(); err != nil {
		return fmt.Errorf("scheduler: release run lock: %w", err)
	}
	return nil
}

var _ RunLock = (*RedisRunLock)(nil)

// InMemoryRunLock is a single-process RunLock for tests and local runs.
type InMemoryRunLock struct {
	mu   gosync.Mutex
	held map[string]struct{}
}

// NewInMemoryRunLock creates an empty in-process run lock.
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{held: make(map[string]struct{})}
}

func (l *InMemoryRunLock) Acquire(_ context.Context, tenantID uuid.UUID, syncType sync.SyncType) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := lockKey(tenantID, syncType)
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = struct{}{}
	return true, nil
}

func (l *InMemoryRunLock) Release(_ context.Context, tenantID uuid.UUID, syncType sync.SyncType) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, lockKey(tenantID, syncType))
	return nil
}

var _ RunLock = (*InMemoryRunLock)(nil)
