package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/shared"
)

// Event types
const (
	EventTypeBillCreated   = "BillCreated"
	EventTypeBillPaid      = "BillPaid"
	EventTypeBillCancelled = "BillCancelled"
	EventTypeTariffUpdated = "TariffUpdated"
)

const (
	aggregateTypeBill   = "Bill"
	aggregateTypeTariff = "Tariff"
)

// BillCreatedEvent is raised when a bill is issued
type BillCreatedEvent struct {
	shared.BaseDomainEvent
	BillID     uuid.UUID       `json:"bill_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Period     BillingPeriod   `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

// EventType returns the event type name
func (e *BillCreatedEvent) EventType() string {
	return EventTypeBillCreated
}

// NewBillCreatedEvent creates a new BillCreatedEvent
func NewBillCreatedEvent(b *Bill) *BillCreatedEvent {
	return &BillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillCreated, aggregateTypeBill, b.ID),
		BillID:          b.ID,
		CustomerID:      b.CustomerID,
		Period:          b.Period,
		Amount:          b.Amount,
		Currency:        b.Currency,
	}
}

// BillPaidEvent is raised when a bill is settled
type BillPaidEvent struct {
	shared.BaseDomainEvent
	BillID          uuid.UUID       `json:"bill_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	ReferenceNumber string          `json:"reference_number"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Method          PaymentMethod   `json:"method"`
	PaidAt          time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *BillPaidEvent) EventType() string {
	return EventTypeBillPaid
}

// NewBillPaidEvent creates a new BillPaidEvent
func NewBillPaidEvent(b *Bill, txn *Transaction) *BillPaidEvent {
	return &BillPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaid, aggregateTypeBill, b.ID),
		BillID:          b.ID,
		CustomerID:      b.CustomerID,
		TransactionID:   txn.ID,
		ReferenceNumber: txn.ReferenceNumber,
		Amount:          txn.Amount,
		Currency:        txn.Currency,
		Method:          txn.Method,
		PaidAt:          txn.PaidAt,
	}
}

// BillCancelledEvent is raised when an unpaid bill is voided
type BillCancelledEvent struct {
	shared.BaseDomainEvent
	BillID     uuid.UUID       `json:"bill_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

// EventType returns the event type name
func (e *BillCancelledEvent) EventType() string {
	return EventTypeBillCancelled
}

// NewBillCancelledEvent creates a new BillCancelledEvent
func NewBillCancelledEvent(b *Bill) *BillCancelledEvent {
	return &BillCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillCancelled, aggregateTypeBill, b.ID),
		BillID:          b.ID,
		CustomerID:      b.CustomerID,
		Amount:          b.Amount,
		Reason:          b.CancelReason,
	}
}

// TariffUpdatedEvent is raised when tariff rates change
type TariffUpdatedEvent struct {
	shared.BaseDomainEvent
	TariffID     uuid.UUID       `json:"tariff_id"`
	Previous     TariffSnapshot  `json:"previous"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	RatePerCubic decimal.Decimal `json:"rate_per_cubic"`
}

// EventType returns the event type name
func (e *TariffUpdatedEvent) EventType() string {
	return EventTypeTariffUpdated
}

// NewTariffUpdatedEvent creates a new TariffUpdatedEvent
func NewTariffUpdatedEvent(t *Tariff, previous TariffSnapshot) *TariffUpdatedEvent {
	return &TariffUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTariffUpdated, aggregateTypeTariff, t.ID),
		TariffID:        t.ID,
		Previous:        previous,
		BaseFee:         t.BaseFee,
		RatePerCubic:    t.RatePerCubic,
	}
}
