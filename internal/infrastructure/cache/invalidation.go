package cache

import (
	"context"

	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared"
)

// TariffInvalidationHandler drops cached tariffs when TariffUpdated is
// published. Update already invalidates locally; this covers writers that
// bypass the cache.
type TariffInvalidationHandler struct {
	cache *TariffCache
}

// NewTariffInvalidationHandler creates an event handler for cache
func NewTariffInvalidationHandler(cache *TariffCache) *TariffInvalidationHandler {
	return &TariffInvalidationHandler{cache: cache}
}

func (h *TariffInvalidationHandler) EventTypes() []string {
	return []string{billing.EventTypeTariffUpdated}
}

func (h *TariffInvalidationHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.cache.Invalidate(event.AggregateID())
	return nil
}

var _ shared.EventHandler = (*TariffInvalidationHandler)(nil)
