package integration

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotObtained is returned when the lock is held by another process
var ErrLockNotObtained = errors.New("integration: lock not obtained")

// Locker serializes work across processes. Token refreshes go through
// it so two workers never burn the same refresh token.
type Locker interface {
	// Obtain acquires the named lock for at most ttl. It returns a
	// release function, or ErrLockNotObtained if the lock is held
	// elsewhere and could not be acquired within the context deadline.
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}
