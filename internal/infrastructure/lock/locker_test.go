package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	l := NewMemoryLocker(0)
	ctx := context.Background()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := l.Acquire(ctx, BillKey("42", "2024-05"))
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, lease.Release(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, 0, l.Held())
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	l := NewMemoryLocker(50 * time.Millisecond)
	ctx := context.Background()

	a, err := l.Acquire(ctx, BillKey("1", "2024-05"))
	require.NoError(t, err)
	b, err := l.Acquire(ctx, BillKey("2", "2024-05"))
	require.NoError(t, err)

	assert.Equal(t, 2, l.Held())
	require.NoError(t, a.Release(ctx))
	require.NoError(t, b.Release(ctx))
	assert.Equal(t, 0, l.Held())
}

func TestMemoryLocker_WaitExpires(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)
	ctx := context.Background()

	held, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, held.Release(ctx))
	require.NoError(t, held.Release(ctx))

	again, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker(0)
	held, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.Equal(t, 1, l.Held())
}

func TestRedisLocker_ConnectionErrorIsNotRetried(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLocker(client, time.Second, 5*time.Second)
	start := time.Now()
	_, err := l.Acquire(context.Background(), "k")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()

	l, err := New(config.BillingConfig{LockBackend: "memory"}, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLocker{}, l)

	_, err = New(config.BillingConfig{LockBackend: "redis"}, nil, logger)
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	l, err = New(config.BillingConfig{LockBackend: "redis"}, client, logger)
	require.NoError(t, err)
	assert.IsType(t, &RedisLocker{}, l)

	_, err = New(config.BillingConfig{LockBackend: "etcd"}, nil, logger)
	assert.Error(t, err)
}
