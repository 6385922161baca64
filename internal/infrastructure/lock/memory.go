package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLocker serializes holders of the same key within one process
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates a locker. A zero wait blocks until ctx is done.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		slots: make(map[string]*slot),
		wait:  wait,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	s := l.ref(key)

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case s.ch <- struct{}{}:
		return &memoryLease{locker: l, key: key, slot: s}, nil
	case <-ctx.Done():
		l.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
	}
}

// Held reports the number of keys with holders or waiters
func (l *MemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *MemoryLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	slot   *slot
	once   sync.Once
}

func (m *memoryLease) Release(context.Context) error {
	m.once.Do(func() {
		<-m.slot.ch
		m.locker.unref(m.key, m.slot)
	})
	return nil
}

var _ Locker = (*MemoryLocker)(nil)
