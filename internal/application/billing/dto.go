package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/billing"
)

// TariffResponse represents a tariff in API responses
type TariffResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	RatePerCubic decimal.Decimal `json:"rate_per_cubic"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          uuid.UUID `json:"id"`
	MeterNumber string    `json:"meter_number"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Status      string    `json:"status"`
	TariffID    uuid.UUID `json:"tariff_id"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TariffAssignmentResponse is one entry of a customer's tariff history
type TariffAssignmentResponse struct {
	TariffID      uuid.UUID `json:"tariff_id"`
	EffectiveFrom string    `json:"effective_from"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReadingResponse represents a meter reading in API responses
type ReadingResponse struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Period        string          `json:"period"`
	PreviousIndex decimal.Decimal `json:"previous_index"`
	CurrentIndex  decimal.Decimal `json:"current_index"`
	Usage         decimal.Decimal `json:"usage"`
	MeterReset    bool            `json:"meter_reset"`
	ReadAt        time.Time       `json:"read_at"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID           uuid.UUID       `json:"id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	ReadingID    uuid.UUID       `json:"reading_id"`
	Period       string          `json:"period"`
	Usage        decimal.Decimal `json:"usage"`
	TariffID     uuid.UUID       `json:"tariff_id"`
	TariffName   string          `json:"tariff_name"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	RatePerCubic decimal.Decimal `json:"rate_per_cubic"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason string          `json:"cancel_reason,omitempty"`
}

// TransactionResponse represents a payment transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	BillID          uuid.UUID       `json:"bill_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	ReferenceNumber string          `json:"reference_number"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Method          string          `json:"method"`
	PaidAt          time.Time       `json:"paid_at"`
	RecordedBy      uuid.UUID       `json:"recorded_by"`
}

// PaymentResponse is the result of settling a bill
type PaymentResponse struct {
	Bill        BillResponse        `json:"bill"`
	Transaction TransactionResponse `json:"transaction"`
}

// BillAmountResponse is the priced result of a reading
type BillAmountResponse struct {
	TariffID     uuid.UUID       `json:"tariff_id"`
	TariffName   string          `json:"tariff_name"`
	Usage        decimal.Decimal `json:"usage"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	RatePerCubic decimal.Decimal `json:"rate_per_cubic"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// SummaryResponse is a financial summary over a date range
type SummaryResponse struct {
	From                 time.Time                  `json:"from"`
	To                   time.Time                  `json:"to"`
	Currency             string                     `json:"currency"`
	TotalCollected       decimal.Decimal            `json:"total_collected"`
	TotalOutstanding     decimal.Decimal            `json:"total_outstanding"`
	TransactionCount     int                        `json:"transaction_count"`
	OutstandingBillCount int                        `json:"outstanding_bill_count"`
	CollectedByMethod    map[string]decimal.Decimal `json:"collected_by_method"`
}

// ExportResponse locates a written ledger export
type ExportResponse struct {
	TransactionsKey      string `json:"transactions_key"`
	TransactionsLocation string `json:"transactions_location"`
	SummaryKey           string `json:"summary_key"`
	SummaryLocation      string `json:"summary_location"`
	Rows                 int    `json:"rows"`
}

// ReceiptResponse carries a rendered receipt
type ReceiptResponse struct {
	BillID          uuid.UUID
	ReferenceNumber string
	ContentType     string
	Content         []byte
}

func toTariffResponse(t *billing.Tariff) TariffResponse {
	return TariffResponse{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		BaseFee:      t.BaseFee,
		RatePerCubic: t.RatePerCubic,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toCustomerResponse(c *billing.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		MeterNumber: c.MeterNumber,
		Name:        c.Name,
		Address:     c.Address,
		Phone:       c.Phone,
		Status:      string(c.Status),
		TariffID:    c.TariffID,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toReadingResponse(r *billing.Reading) ReadingResponse {
	usage, _ := r.Usage()
	return ReadingResponse{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		Period:        r.Period.String(),
		PreviousIndex: r.PreviousIndex,
		CurrentIndex:  r.CurrentIndex,
		Usage:         usage,
		MeterReset:    r.MeterReset,
		ReadAt:        r.ReadAt,
	}
}

func toBillResponse(b *billing.Bill) BillResponse {
	return BillResponse{
		ID:           b.ID,
		CustomerID:   b.CustomerID,
		ReadingID:    b.ReadingID,
		Period:       b.Period.String(),
		Usage:        b.Usage,
		TariffID:     b.Tariff.TariffID,
		TariffName:   b.Tariff.Name,
		BaseFee:      b.Tariff.BaseFee,
		RatePerCubic: b.Tariff.RatePerCubic,
		Amount:       b.Amount,
		Currency:     b.Currency,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		PaidAt:       b.PaidAt,
		CancelledAt:  b.CancelledAt,
		CancelReason: b.CancelReason,
	}
}

func toTransactionResponse(t *billing.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		BillID:          t.BillID,
		CustomerID:      t.CustomerID,
		ReferenceNumber: t.ReferenceNumber,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Method:          string(t.Method),
		PaidAt:          t.PaidAt,
		RecordedBy:      t.RecordedBy,
	}
}

func toSummaryResponse(s billing.FinancialSummary) SummaryResponse {
	return SummaryResponse{
		From:                 s.Range.From,
		To:                   s.Range.To,
		Currency:             s.Currency,
		TotalCollected:       s.TotalCollected,
		TotalOutstanding:     s.TotalOutstanding,
		TransactionCount:     s.TransactionCount,
		OutstandingBillCount: s.OutstandingBillCount,
		CollectedByMethod: lo.MapKeys(s.CollectedByMethod, func(_ decimal.Decimal, m billing.PaymentMethod) string {
			return string(m)
		}),
	}
}

func toBillResponses(bills []*billing.Bill) []BillResponse {
	return lo.Map(bills, func(b *billing.Bill, _ int) BillResponse { return toBillResponse(b) })
}

func toTariffResponses(tariffs []*billing.Tariff) []TariffResponse {
	return lo.Map(tariffs, func(t *billing.Tariff, _ int) TariffResponse { return toTariffResponse(t) })
}

func toCustomerResponses(customers []*billing.Customer) []CustomerResponse {
	return lo.Map(customers, func(c *billing.Customer, _ int) CustomerResponse { return toCustomerResponse(c) })
}

func toTransactionResponses(txns []*billing.Transaction) []TransactionResponse {
	return lo.Map(txns, func(t *billing.Transaction, _ int) TransactionResponse { return toTransactionResponse(t) })
}
