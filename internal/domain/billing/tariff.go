package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/shared"
)

// Tariff is a named billing rule: a fixed base fee plus a rate per cubic meter.
// Editing a tariff affects only bills computed afterwards.
type Tariff struct {
	shared.BaseAggregateRoot
	Name         string
	BaseFee      decimal.Decimal
	RatePerCubic decimal.Decimal
	Description  string
}

// TariffSnapshot captures the rate values a bill was computed with
type TariffSnapshot struct {
	TariffID     uuid.UUID
	Name         string
	BaseFee      decimal.Decimal
	RatePerCubic decimal.Decimal
}

// NewTariff creates a tariff
func NewTariff(name string, baseFee, ratePerCubic decimal.Decimal) (*Tariff, error) {
	if err := validateTariff(name, baseFee, ratePerCubic); err != nil {
		return nil, err
	}
	return &Tariff{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		BaseFee:           baseFee,
		RatePerCubic:      ratePerCubic,
	}, nil
}

// Update changes the rates for future billing and raises TariffUpdated
func (t *Tariff) Update(name string, baseFee, ratePerCubic decimal.Decimal, description string) error {
	if err := validateTariff(name, baseFee, ratePerCubic); err != nil {
		return err
	}
	previous := t.Snapshot()

	t.Name = strings.TrimSpace(name)
	t.BaseFee = baseFee
	t.RatePerCubic = ratePerCubic
	t.Description = strings.TrimSpace(description)
	t.MarkModified(time.Now())

	t.AddDomainEvent(NewTariffUpdatedEvent(t, previous))
	return nil
}

// Snapshot returns the current rate values
func (t *Tariff) Snapshot() TariffSnapshot {
	return TariffSnapshot{
		TariffID:     t.ID,
		Name:         t.Name,
		BaseFee:      t.BaseFee,
		RatePerCubic: t.RatePerCubic,
	}
}

func validateTariff(name string, baseFee, ratePerCubic decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Tariff name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Tariff name cannot exceed 100 characters")
	}
	if baseFee.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Base fee cannot be negative")
	}
	if ratePerCubic.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Rate per cubic meter cannot be negative")
	}
	return nil
}

// TariffAssignment records which tariff applies to a customer from a period on
type TariffAssignment struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	TariffID      uuid.UUID
	EffectiveFrom BillingPeriod
	CreatedAt     time.Time
}

// NewTariffAssignment creates an assignment record
func NewTariffAssignment(customerID, tariffID uuid.UUID, effectiveFrom BillingPeriod) *TariffAssignment {
	return &TariffAssignment{
		ID:            uuid.New(),
		CustomerID:    customerID,
		TariffID:      tariffID,
		EffectiveFrom: effectiveFrom,
		CreatedAt:     time.Now(),
	}
}
