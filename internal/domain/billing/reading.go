package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/shared"
)

// Reading is a recorded meter index pair for a customer and period
type Reading struct {
	shared.BaseEntity
	CustomerID    uuid.UUID
	Period        BillingPeriod
	PreviousIndex decimal.Decimal
	CurrentIndex  decimal.Decimal
	// MeterReset marks a replaced or rolled-over meter that restarted at zero.
	MeterReset bool
	ReadAt     time.Time
	RecordedBy *uuid.UUID
}

// NewReading validates and creates a reading. A current index below the
// previous one is rejected unless the meter was explicitly reset.
func NewReading(customerID uuid.UUID, period BillingPeriod, previous, current decimal.Decimal, meterReset bool, readAt time.Time) (*Reading, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer is required")
	}
	if !period.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid billing period")
	}
	if previous.IsNegative() || current.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Meter indexes cannot be negative")
	}
	if readAt.IsZero() {
		readAt = time.Now()
	}

	r := &Reading{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		Period:        period,
		PreviousIndex: previous,
		CurrentIndex:  current,
		MeterReset:    meterReset,
		ReadAt:        readAt,
	}
	if _, err := r.Usage(); err != nil {
		return nil, err
	}
	return r, nil
}

// Usage returns the consumed volume in cubic meters
func (r *Reading) Usage() (decimal.Decimal, error) {
	usage := r.CurrentIndex.Sub(r.PreviousIndex)
	if usage.IsNegative() {
		if r.MeterReset {
			// the new meter counted up from zero
			return r.CurrentIndex, nil
		}
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidReading,
			"Current index "+r.CurrentIndex.String()+" is lower than previous index "+r.PreviousIndex.String())
	}
	return usage, nil
}
