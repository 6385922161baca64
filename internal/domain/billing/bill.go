package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/shared"
)

// BillStatus represents the status of a bill
type BillStatus string

const (
	BillStatusUnpaid    BillStatus = "UNPAID"
	BillStatusPaid      BillStatus = "PAID"
	BillStatusCancelled BillStatus = "CANCELLED"
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusUnpaid, BillStatusPaid, BillStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no transition is allowed out of the status
func (s BillStatus) IsTerminal() bool {
	return s == BillStatusPaid || s == BillStatusCancelled
}

// Bill is a monetary obligation derived from one reading under one tariff
type Bill struct {
	shared.BaseAggregateRoot
	CustomerID   uuid.UUID
	ReadingID    uuid.UUID
	Period       BillingPeriod
	Usage        decimal.Decimal
	Tariff       TariffSnapshot
	Amount       decimal.Decimal
	Currency     string
	Status       BillStatus
	PaidAt       *time.Time
	CancelledAt  *time.Time
	CancelReason string
	CreatedBy    *uuid.UUID
}

// NewBill creates an UNPAID bill from a priced reading
func NewBill(customerID uuid.UUID, reading *Reading, priced BillAmount) (*Bill, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer is required")
	}
	if reading == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reading is required")
	}
	if reading.CustomerID != customerID {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reading belongs to another customer")
	}
	if priced.Amount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Bill amount cannot be negative")
	}

	bill := &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		ReadingID:         reading.ID,
		Period:            reading.Period,
		Usage:             priced.Usage,
		Tariff:            priced.Tariff,
		Amount:            priced.Amount.Amount(),
		Currency:          priced.Amount.Currency().String(),
		Status:            BillStatusUnpaid,
	}

	bill.AddDomainEvent(NewBillCreatedEvent(bill))
	return bill, nil
}

// Pay settles the bill in full and returns the resulting transaction.
// Partial payments are rejected.
func (b *Bill) Pay(amount decimal.Decimal, method PaymentMethod, reference string, recordedBy uuid.UUID) (*Transaction, error) {
	if b.Status != BillStatusUnpaid {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot pay bill in %s status", b.Status))
	}
	if !amount.Equal(b.Amount) {
		return nil, shared.NewDomainError(shared.CodeAmountMismatch,
			fmt.Sprintf("Payment amount %s does not match bill amount %s", amount.String(), b.Amount.String()))
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid payment method")
	}
	if strings.TrimSpace(reference) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment reference is required")
	}

	now := time.Now().UTC()
	b.Status = BillStatusPaid
	b.PaidAt = &now
	b.MarkModified(now)

	txn := &Transaction{
		ID:              uuid.New(),
		BillID:          b.ID,
		CustomerID:      b.CustomerID,
		ReferenceNumber: reference,
		Amount:          b.Amount,
		Currency:        b.Currency,
		Method:          method,
		PaidAt:          now,
		RecordedBy:      recordedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	b.AddDomainEvent(NewBillPaidEvent(b, txn))
	return txn, nil
}

// Cancel voids an UNPAID bill
func (b *Bill) Cancel(reason string) error {
	if b.Status != BillStatusUnpaid {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot cancel bill in %s status", b.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Cancellation reason is required")
	}

	now := time.Now().UTC()
	b.Status = BillStatusCancelled
	b.CancelledAt = &now
	b.CancelReason = reason
	b.MarkModified(now)

	b.AddDomainEvent(NewBillCancelledEvent(b))
	return nil
}

// IsUnpaid returns true if the bill is awaiting payment
func (b *Bill) IsUnpaid() bool {
	return b.Status == BillStatusUnpaid
}
