package event

import (
	"context"

	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MetricsHandler feeds billing events into the business counters
type MetricsHandler struct {
	metrics *telemetry.BillingMetrics
}

// NewMetricsHandler creates a handler recording into metrics
func NewMetricsHandler(metrics *telemetry.BillingMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

func (h *MetricsHandler) EventTypes() []string {
	return []string{
		billing.EventTypeBillCreated,
		billing.EventTypeBillPaid,
		billing.EventTypeBillCancelled,
	}
}

func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.BillCreatedEvent:
		h.metrics.RecordBillCreated(ctx, e.Period.String())
	case *billing.BillPaidEvent:
		h.metrics.RecordPayment(ctx, string(e.Method), e.Currency, e.Amount)
	case *billing.BillCancelledEvent:
		h.metrics.RecordBillCancelled(ctx)
	}
	return nil
}

// AuditLogHandler writes every domain event to the structured log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a wildcard audit handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns nil, subscribing to every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", event),
	)
	return nil
}

var (
	_ shared.EventHandler = (*MetricsHandler)(nil)
	_ shared.EventHandler = (*AuditLogHandler)(nil)
)
