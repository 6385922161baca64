package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CreateTariffInput contains the fields of a new tariff
type CreateTariffInput struct {
	Name         string
	BaseFee      decimal.Decimal
	RatePerCubic decimal.Decimal
	Description  string
}

// UpdateTariffInput replaces a tariff's rates for future bills
type UpdateTariffInput = CreateTariffInput

// ComputeInput prices a hypothetical reading. Either TariffID, or CustomerID
// with Period, selects the tariff.
type ComputeInput struct {
	TariffID      *uuid.UUID
	CustomerID    *uuid.UUID
	Period        string
	PreviousIndex decimal.Decimal
	CurrentIndex  decimal.Decimal
	MeterReset    bool
}

// TariffService manages tariffs and exposes the pure resolve/compute paths
type TariffService struct {
	tariffs    billing.TariffRepository
	resolver   *billing.TariffResolver
	calculator *billing.Calculator
	authz      *Authorizer
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewTariffService creates a new TariffService
func NewTariffService(
	tariffs billing.TariffRepository,
	resolver *billing.TariffResolver,
	calculator *billing.Calculator,
	authz *Authorizer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *TariffService {
	return &TariffService{
		tariffs:    tariffs,
		resolver:   resolver,
		calculator: calculator,
		authz:      authz,
		events:     events,
		logger:     logger,
	}
}

// Create adds a tariff
func (s *TariffService) Create(ctx context.Context, actor identity.Actor, input CreateTariffInput) (*TariffResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpTariffCreate); err != nil {
		return nil, err
	}

	tariff, err := billing.NewTariff(input.Name, input.BaseFee, input.RatePerCubic)
	if err != nil {
		return nil, err
	}
	tariff.Description = input.Description

	if err := s.tariffs.Create(ctx, tariff); err != nil {
		return nil, fmt.Errorf("failed to create tariff: %w", err)
	}

	s.logger.Info("Tariff created",
		zap.String("tariff_id", tariff.ID.String()),
		zap.String("name", tariff.Name))
	resp := toTariffResponse(tariff)
	return &resp, nil
}

// Update changes a tariff's rates. Persisted bills keep their snapshot.
func (s *TariffService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input UpdateTariffInput) (*TariffResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpTariffUpdate); err != nil {
		return nil, err
	}

	tariff, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tariff.Update(input.Name, input.BaseFee, input.RatePerCubic, input.Description); err != nil {
		return nil, err
	}
	if err := s.tariffs.Update(ctx, tariff); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.events, s.logger, tariff)

	s.logger.Info("Tariff updated",
		zap.String("tariff_id", tariff.ID.String()),
		zap.String("base_fee", tariff.BaseFee.String()),
		zap.String("rate_per_cubic", tariff.RatePerCubic.String()))
	resp := toTariffResponse(tariff)
	return &resp, nil
}

// GetByID returns one tariff
func (s *TariffService) GetByID(ctx context.Context, actor identity.Actor, id uuid.UUID) (*TariffResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpTariffRead); err != nil {
		return nil, err
	}
	tariff, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toTariffResponse(tariff)
	return &resp, nil
}

// List returns a page of tariffs
func (s *TariffService) List(ctx context.Context, actor identity.Actor, filter shared.Filter) (*shared.Paginated[TariffResponse], error) {
	if err := s.authz.Require(ctx, actor, identity.OpTariffRead); err != nil {
		return nil, err
	}
	filter.Normalize()
	tariffs, total, err := s.tariffs.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	page := shared.NewPaginated(toTariffResponses(tariffs), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Resolve returns the tariff in force for a customer and period
func (s *TariffService) Resolve(ctx context.Context, actor identity.Actor, customerID uuid.UUID, period string) (*TariffResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpTariffRead); err != nil {
		return nil, err
	}
	p, err := billing.ParseBillingPeriod(period)
	if err != nil {
		return nil, err
	}
	tariff, err := s.resolver.Resolve(ctx, customerID, p)
	if err != nil {
		return nil, err
	}
	resp := toTariffResponse(tariff)
	return &resp, nil
}

// Compute prices a reading without persisting anything
func (s *TariffService) Compute(ctx context.Context, actor identity.Actor, input ComputeInput) (*BillAmountResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tariff", "compute")
	defer span.End()

	if err := s.authz.Require(ctx, actor, identity.OpTariffRead); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		tariff *billing.Tariff
		err    error
	)
	switch {
	case input.TariffID != nil:
		tariff, err = s.find(ctx, *input.TariffID)
	case input.CustomerID != nil:
		var p billing.BillingPeriod
		if p, err = billing.ParseBillingPeriod(input.Period); err == nil {
			tariff, err = s.resolver.Resolve(ctx, *input.CustomerID, p)
		}
	default:
		err = shared.NewDomainError(shared.CodeInvalidInput, "Either a tariff or a customer and period is required")
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	reading := &billing.Reading{
		PreviousIndex: input.PreviousIndex,
		CurrentIndex:  input.CurrentIndex,
		MeterReset:    input.MeterReset,
	}
	priced, err := s.calculator.Compute(reading, tariff.Snapshot())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrTariffID, tariff.ID.String(), telemetry.AttrAmount, priced.Amount.Amount().String())

	return &BillAmountResponse{
		TariffID:     priced.Tariff.TariffID,
		TariffName:   priced.Tariff.Name,
		Usage:        priced.Usage,
		BaseFee:      priced.Tariff.BaseFee,
		RatePerCubic: priced.Tariff.RatePerCubic,
		Amount:       priced.Amount.Amount(),
		Currency:     priced.Amount.Currency().String(),
	}, nil
}

func (s *TariffService) find(ctx context.Context, id uuid.UUID) (*billing.Tariff, error) {
	tariff, err := s.tariffs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tariff: %w", err)
	}
	if tariff == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Tariff not found")
	}
	return tariff, nil
}
