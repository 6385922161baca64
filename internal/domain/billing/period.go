package billing

import (
	"fmt"
	"time"

	"github.com/waterbill/backend/internal/domain/shared"
)

const periodLayout = "2006-01"

// BillingPeriod identifies a monthly billing period as YYYY-MM.
// Lexical order equals chronological order.
type BillingPeriod string

// ParseBillingPeriod validates s as a YYYY-MM period
func ParseBillingPeriod(s string) (BillingPeriod, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Invalid billing period %q, expected YYYY-MM", s))
	}
	return BillingPeriod(t.Format(periodLayout)), nil
}

// PeriodOf returns the billing period containing t
func PeriodOf(t time.Time) BillingPeriod {
	return BillingPeriod(t.UTC().Format(periodLayout))
}

// Start returns the first instant of the period in UTC
func (p BillingPeriod) Start() time.Time {
	t, err := time.Parse(periodLayout, string(p))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Previous returns the period immediately before p
func (p BillingPeriod) Previous() BillingPeriod {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

// Before reports whether p precedes other
func (p BillingPeriod) Before(other BillingPeriod) bool {
	return p < other
}

// IsValid reports whether p is a well-formed period
func (p BillingPeriod) IsValid() bool {
	_, err := time.Parse(periodLayout, string(p))
	return err == nil
}

func (p BillingPeriod) String() string {
	return string(p)
}

// DateRange is a half-open time interval [From, To)
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange validates and builds a range
func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.IsZero() || to.IsZero() {
		return DateRange{}, shared.NewDomainError(shared.CodeInvalidInput, "Date range bounds are required")
	}
	if !from.Before(to) {
		return DateRange{}, shared.NewDomainError(shared.CodeInvalidInput, "Date range start must be before its end")
	}
	return DateRange{From: from, To: to}, nil
}

// NewDateRangeFromDays builds a range covering whole calendar days, both ends inclusive
func NewDateRangeFromDays(fromDay, toDay time.Time) (DateRange, error) {
	from := truncateDay(fromDay)
	to := truncateDay(toDay).AddDate(0, 0, 1)
	return NewDateRange(from, to)
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
