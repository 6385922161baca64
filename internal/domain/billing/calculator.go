package billing

import (
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/domain/shared/valueobject"
)

// BillAmount is the priced result of a reading under a tariff
type BillAmount struct {
	Usage  decimal.Decimal
	Tariff TariffSnapshot
	Amount valueobject.Money
}

// Calculator prices readings. It performs no I/O.
type Calculator struct {
	currency   valueobject.Currency
	minorUnits int32
}

// NewCalculator creates a calculator for the currency. A negative minorUnits
// uses the currency's standard minor unit.
func NewCalculator(currency valueobject.Currency, minorUnits int32) *Calculator {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if minorUnits < 0 {
		minorUnits = currency.MinorUnits()
	}
	return &Calculator{currency: currency, minorUnits: minorUnits}
}

// Currency returns the billing currency
func (c *Calculator) Currency() valueobject.Currency {
	return c.currency
}

// Compute returns baseFee + usage × ratePerCubic, rounded half-up to the
// currency's minor unit once at the end. Zero usage still owes the base fee.
func (c *Calculator) Compute(reading *Reading, tariff TariffSnapshot) (BillAmount, error) {
	if reading == nil {
		return BillAmount{}, shared.NewDomainError(shared.CodeInvalidInput, "Reading is required")
	}
	if tariff.BaseFee.IsNegative() || tariff.RatePerCubic.IsNegative() {
		return BillAmount{}, shared.NewDomainError(shared.CodeInvalidInput, "Tariff rates cannot be negative")
	}

	usage, err := reading.Usage()
	if err != nil {
		return BillAmount{}, err
	}

	raw := tariff.BaseFee.Add(usage.Mul(tariff.RatePerCubic))
	amount, err := valueobject.NewMoney(raw, c.currency)
	if err != nil {
		return BillAmount{}, err
	}

	return BillAmount{
		Usage:  usage,
		Tariff: tariff,
		Amount: amount.RoundHalfUp(c.minorUnits),
	}, nil
}
