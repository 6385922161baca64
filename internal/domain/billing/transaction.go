package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a bill was settled
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodEWallet      PaymentMethod = "E_WALLET"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodOther:
		return true
	}
	return false
}

// Transaction is the immutable record of a completed bill payment.
// It only comes into existence through Bill.Pay.
type Transaction struct {
	ID              uuid.UUID
	BillID          uuid.UUID
	CustomerID      uuid.UUID
	ReferenceNumber string
	Amount          decimal.Decimal
	Currency        string
	Method          PaymentMethod
	PaidAt          time.Time
	RecordedBy      uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
