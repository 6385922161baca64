package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRedisLockTTL = 30 * time.Second
	redisLockPrefix     = "waterbill:lock:"
)

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errHeld = errors.New("held by another owner")

// RedisLocker implements Locker with SET NX PX, shared across instances
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	prefix string
	logger *zap.Logger
}

// RedisLockerOption is a functional option for configuring the locker
type RedisLockerOption func(*RedisLocker)

// WithRedisLogger sets the logger
func WithRedisLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) {
		l.logger = logger
	}
}

// WithKeyPrefix overrides the key namespace
func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

// NewRedisLocker creates a Redis-backed locker. ttl bounds how long a crashed
// holder blocks the key; wait bounds how long Acquire retries.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration, opts ...RedisLockerOption) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultRedisLockTTL
	}
	l := &RedisLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		prefix: redisLockPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = l.wait

	op := func() error {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("lock: acquire %s: %w", key, err))
		}
		if !ok {
			return errHeld
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, errHeld) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}
		return nil, err
	}
	return &redisLease{locker: l, key: redisKey, token: token}, nil
}

type redisLease struct {
	locker *RedisLocker
	key    string
	token  string
	once   sync.Once
	err    error
}

func (r *redisLease) Release(ctx context.Context) error {
	r.once.Do(func() {
		n, err := releaseScript.Run(ctx, r.locker.client, []string{r.key}, r.token).Int()
		switch {
		case err != nil:
			r.err = fmt.Errorf("lock: release %s: %w", r.key, err)
		case n == 0:
			r.locker.logger.Warn("Lock expired before release", zap.String("key", r.key))
			r.err = ErrNotHeld
		}
	})
	return r.err
}

var _ Locker = (*RedisLocker)(nil)
