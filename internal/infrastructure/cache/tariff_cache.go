package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	goCache "github.com/patrickmn/go-cache"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	// DefaultTariffTTL is used when no TTL is configured
	DefaultTariffTTL = 10 * time.Minute

	tariffKeyPrefix = "tariff:"
)

// TariffCache is a read-through cache in front of a TariffRepository.
// Tariffs are read on every bill computation and mutated rarely, so lookups
// by id are served from memory until the entry expires or is invalidated.
type TariffCache struct {
	next   billing.TariffRepository
	cache  *goCache.Cache
	ttl    time.Duration
	logger *zap.Logger

	hits   int64
	misses int64
}

// TariffCacheOption is a functional option for configuring the cache
type TariffCacheOption func(*TariffCache)

// WithTTL sets the entry lifetime
func WithTTL(ttl time.Duration) TariffCacheOption {
	return func(c *TariffCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger for the cache
func WithLogger(logger *zap.Logger) TariffCacheOption {
	return func(c *TariffCache) {
		c.logger = logger
	}
}

// NewTariffCache wraps next with an in-memory cache
func NewTariffCache(next billing.TariffRepository, opts ...TariffCacheOption) *TariffCache {
	c := &TariffCache{
		next:   next,
		ttl:    DefaultTariffTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = goCache.New(c.ttl, 2*c.ttl)
	return c
}

func tariffKey(id uuid.UUID) string {
	return tariffKeyPrefix + id.String()
}

// Create writes through and does not populate the cache
func (c *TariffCache) Create(ctx context.Context, tariff *billing.Tariff) error {
	return c.next.Create(ctx, tariff)
}

// Update writes through and drops the cached entry
func (c *TariffCache) Update(ctx context.Context, tariff *billing.Tariff) error {
	if err := c.next.Update(ctx, tariff); err != nil {
		return err
	}
	c.Invalidate(tariff.ID)
	return nil
}

// FindByID serves from cache, loading from the repository on a miss.
// Absent tariffs are not cached.
func (c *TariffCache) FindByID(ctx context.Context, id uuid.UUID) (*billing.Tariff, error) {
	if v, ok := c.cache.Get(tariffKey(id)); ok {
		atomic.AddInt64(&c.hits, 1)
		return cloneTariff(v.(*billing.Tariff)), nil
	}
	atomic.AddInt64(&c.misses, 1)

	tariff, err := c.next.FindByID(ctx, id)
	if err != nil || tariff == nil {
		return tariff, err
	}
	c.cache.Set(tariffKey(id), cloneTariff(tariff), goCache.DefaultExpiration)
	c.logger.Debug("Cached tariff", zap.String("tariff_id", id.String()), zap.Duration("ttl", c.ttl))
	return tariff, nil
}

// FindAll always reads through
func (c *TariffCache) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Tariff, int64, error) {
	return c.next.FindAll(ctx, filter)
}

// Invalidate removes one tariff from the cache
func (c *TariffCache) Invalidate(id uuid.UUID) {
	c.cache.Delete(tariffKey(id))
	c.logger.Debug("Invalidated cached tariff", zap.String("tariff_id", id.String()))
}

// Flush empties the cache
func (c *TariffCache) Flush() {
	c.cache.Flush()
}

// Stats returns hit and miss counts
func (c *TariffCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// cloneTariff returns a copy so callers can mutate the result without
// touching the cached value
func cloneTariff(t *billing.Tariff) *billing.Tariff {
	cp := *t
	cp.ClearDomainEvents()
	return &cp
}

var _ billing.TariffRepository = (*TariffCache)(nil)
