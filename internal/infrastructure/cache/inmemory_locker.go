package cache

import (
	"context"
	"sync"
	"time"

	appintegration "github.com/importops/backend/internal/application/integration"
)

// InMemoryLocker implements the Locker port with process-local locks.
// This is suitable for single-instance deployments and testing.
// WARNING: In-memory locks do not exclude holders in other process
// instances; distributed deployments must use RedisLocker.
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewInMemoryLocker creates a new InMemoryLocker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		locks: make(map[string]time.Time),
	}
}

// Obtain acquires the named lock for at most ttl. Expired locks are
// treated as free, mirroring the Redis TTL behavior.
func (l *InMemoryLocker) Obtain(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.locks[key]; held && time.Now().Before(expiry) {
		return nil, appintegration.ErrLockNotObtained
	}
	l.locks[key] = time.Now().Add(ttl)

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.locks, key)
		return nil
	}, nil
}

// Ensure InMemoryLocker implements the Locker port
var _ appintegration.Locker = (*InMemoryLocker)(nil)
