package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

const dateLayout = "2006-01-02"

// DateRangeQuery selects whole days, both ends inclusive. It binds from the
// query string or a JSON body.
type DateRangeQuery struct {
	From string `form:"from" json:"from" binding:"required,datetime=2006-01-02" example:"2024-03-01"`
	To   string `form:"to" json:"to" binding:"required,datetime=2006-01-02" example:"2024-03-31"`
}

// Range converts the query to a half-open DateRange ending after To
func (q DateRangeQuery) Range() (billing.DateRange, error) {
	from, err := time.Parse(dateLayout, q.From)
	if err != nil {
		return billing.DateRange{}, shared.NewDomainError(shared.CodeInvalidInput, "Invalid from date")
	}
	to, err := time.Parse(dateLayout, q.To)
	if err != nil {
		return billing.DateRange{}, shared.NewDomainError(shared.CodeInvalidInput, "Invalid to date")
	}
	return billing.NewDateRangeFromDays(from, to)
}

func toFilter(req dto.ListRequest) shared.Filter {
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
}

// parseDecimal parses a money or index string. Amounts travel as strings so
// no binary float sits between the client and the ledger.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidInput, "Invalid "+field+": not a decimal number")
	}
	return d, nil
}

func parseOptionalDecimal(field string, s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := parseDecimal(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptionalUUID(field, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid "+field+" format")
	}
	return &id, nil
}
