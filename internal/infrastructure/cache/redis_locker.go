package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	appintegration "github.com/importops/backend/internal/application/integration"
)

// lockKeyPrefix namespaces lock keys in Redis
const lockKeyPrefix = "lock:"

// RedisLocker implements the Locker port with Redis-backed distributed
// locks, so lock holders exclude each other across process instances.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a RedisLocker over an existing Redis client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
	}
}

// Obtain acquires the named lock for at most ttl. There is no retry:
// a held lock means another worker is already doing the job.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, lockKeyPrefix+key, ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, appintegration.ErrLockNotObtained
		}
		return nil, fmt.Errorf("failed to obtain lock %q: %w", key, err)
	}

	return func(releaseCtx context.Context) error {
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("failed to release lock %q: %w", key, err)
		}
		return nil
	}, nil
}

// Ensure RedisLocker implements the Locker port
var _ appintegration.Locker = (*RedisLocker)(nil)
