package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RecordReadingInput contains a meter reading. A nil PreviousIndex continues
// from the customer's last reading, or from zero for a new meter.
type RecordReadingInput struct {
	CustomerID    uuid.UUID
	Period        string
	PreviousIndex *decimal.Decimal
	CurrentIndex  decimal.Decimal
	MeterReset    bool
	ReadAt        time.Time
}

// ReadingService ingests meter readings
type ReadingService struct {
	customers billing.CustomerRepository
	readings  billing.ReadingRepository
	authz     *Authorizer
	logger    *zap.Logger
}

// NewReadingService creates a new ReadingService
func NewReadingService(
	customers billing.CustomerRepository,
	readings billing.ReadingRepository,
	authz *Authorizer,
	logger *zap.Logger,
) *ReadingService {
	return &ReadingService{
		customers: customers,
		readings:  readings,
		authz:     authz,
		logger:    logger,
	}
}

// Record stores one reading per customer and period
func (s *ReadingService) Record(ctx context.Context, actor identity.Actor, input RecordReadingInput) (*ReadingResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpReadingCreate); err != nil {
		return nil, err
	}
	period, err := billing.ParseBillingPeriod(input.Period)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Customer not found")
	}
	if !customer.IsActive() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Customer is inactive")
	}

	previous := decimal.Zero
	if input.PreviousIndex != nil {
		previous = *input.PreviousIndex
	} else {
		last, err := s.readings.FindLatestBefore(ctx, customer.ID, period)
		if err != nil {
			return nil, fmt.Errorf("failed to get previous reading: %w", err)
		}
		if last != nil {
			previous = last.CurrentIndex
		}
	}

	reading, err := billing.NewReading(customer.ID, period, previous, input.CurrentIndex, input.MeterReset, input.ReadAt)
	if err != nil {
		return nil, err
	}
	if actor.UserID != uuid.Nil {
		recordedBy := actor.UserID
		reading.RecordedBy = &recordedBy
	}

	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, err
	}

	s.logger.Info("Reading recorded",
		zap.String("customer_id", customer.ID.String()),
		zap.String("period", period.String()),
		zap.String("previous_index", previous.String()),
		zap.String("current_index", input.CurrentIndex.String()))
	resp := toReadingResponse(reading)
	return &resp, nil
}
