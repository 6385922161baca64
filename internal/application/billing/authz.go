package billing

import (
	"context"

	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Authorizer consults the gate before any state is read for a mutation, and
// logs and counts every denial
type Authorizer struct {
	gate    *identity.Gate
	metrics *telemetry.BillingMetrics
	logger  *zap.Logger
}

// NewAuthorizer creates an authorizer. metrics may be nil.
func NewAuthorizer(gate *identity.Gate, metrics *telemetry.BillingMetrics, logger *zap.Logger) *Authorizer {
	if gate == nil {
		gate = identity.NewGate(nil)
	}
	return &Authorizer{gate: gate, metrics: metrics, logger: logger}
}

// Require returns FORBIDDEN when actor may not perform op
func (a *Authorizer) Require(ctx context.Context, actor identity.Actor, op identity.Operation) error {
	err := a.gate.Require(actor.Role, op)
	if err == nil {
		return nil
	}
	a.logger.Warn("Operation denied",
		zap.String("user_id", actor.UserID.String()),
		zap.String("role", actor.Role.String()),
		zap.String("operation", string(op)))
	if a.metrics != nil {
		a.metrics.RecordAuthorizationDenied(ctx, actor.Role.String(), string(op))
	}
	return err
}

// Allows reports the decision without logging
func (a *Authorizer) Allows(actor identity.Actor, op identity.Operation) bool {
	return a.gate.Authorize(actor.Role, op) == identity.Allow
}

// publishEvents hands an aggregate's pending events to the bus after commit.
// A failed publish is logged; the committed change stands.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, agg shared.AggregateRoot) {
	events := agg.PullDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish domain events", zap.Error(err), zap.Int("count", len(events)))
	}
}
