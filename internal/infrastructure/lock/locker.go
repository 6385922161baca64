// Package lock provides keyed mutual exclusion used to serialize bill
// creation per customer and period.
package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	// ErrNotAcquired is returned when a key stays held past the wait budget
	ErrNotAcquired = errors.New("lock: not acquired")
	// ErrNotHeld is returned by Release when the lease already expired or was taken over
	ErrNotHeld = errors.New("lock: not held")
)

// Locker grants exclusive leases on string keys
type Locker interface {
	// Acquire blocks until key is free, the wait budget runs out, or ctx is done
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Lease is a held lock. Release is idempotent.
type Lease interface {
	Release(ctx context.Context) error
}

// BillKey returns the lock key for a (customer, period) bill slot
func BillKey(customerID, period string) string {
	return fmt.Sprintf("bill:%s:%s", customerID, period)
}

// New builds the locker selected by cfg.LockBackend
func New(cfg config.BillingConfig, client redis.UniversalClient, logger *zap.Logger) (Locker, error) {
	switch cfg.LockBackend {
	case "", "memory":
		logger.Info("Using in-process bill locks")
		return NewMemoryLocker(cfg.LockWait), nil
	case "redis":
		if client == nil {
			return nil, errors.New("lock: redis backend selected without a redis client")
		}
		logger.Info("Using Redis bill locks", zap.Duration("ttl", cfg.LockTTL), zap.Duration("wait", cfg.LockWait))
		return NewRedisLocker(client, cfg.LockTTL, cfg.LockWait, WithRedisLogger(logger)), nil
	default:
		return nil, fmt.Errorf("lock: unknown backend %q", cfg.LockBackend)
	}
}
