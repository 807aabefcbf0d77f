package rebuild

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"namedex/pkg/platform/sentinel"
)

// Locker serializes rebuilds. Clear-then-repopulate is not atomic, so two
// concurrent passes can leave the index partial; acquisition fails with
// sentinel.ErrConflict while another holder is active.
type Locker interface {
	// Acquire takes the lock and returns its release func.
	Acquire(ctx context.Context) (release func(ctx context.Context) error, err error)
}

// MutexLocker is the in-process fallback for single-instance deployments
// without Redis.
type MutexLocker struct {
	mu sync.Mutex
}

// NewMutexLocker creates an in-process rebuild lock.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{}
}

func (l *MutexLocker) Acquire(ctx context.Context) (func(ctx context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, fmt.Errorf("rebuild already running: %w", sentinel.ErrConflict)
	}
	return func(context.Context) error {
		l.mu.Unlock()
		return nil
	}, nil
}

const redisLockKey = "namedex:rebuild:lock"

// releaseScript deletes the lock only when the stored token matches, so an
// expired-and-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is the cross-process rebuild lock. The TTL bounds how long a
// crashed holder can block the next rebuild.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker creates a Redis-backed rebuild lock.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(ctx context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, redisLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire rebuild lock: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("rebuild already running: %w", sentinel.ErrConflict)
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{redisLockKey}, token).Err(); err != nil {
			return fmt.Errorf("release rebuild lock: %w", err)
		}
		return nil
	}, nil
}
