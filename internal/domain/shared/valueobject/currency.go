package valueobject

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	IDR Currency = "IDR" // Indonesian Rupiah (default)
	USD Currency = "USD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = IDR

// ParseCurrency validates an ISO 4217 code.
func ParseCurrency(code string) (Currency, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// MinorUnits returns the number of decimal places of the currency's minor
// unit according to CLDR. Unknown codes fall back to 2.
func (c Currency) MinorUnits() int32 {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

func (c Currency) String() string {
	return string(c)
}
