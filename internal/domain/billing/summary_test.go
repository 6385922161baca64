package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/shared"
)

func may2024(t *testing.T) DateRange {
	t.Helper()
	r, err := NewDateRangeFromDays(
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return r
}

func summaryBill(status BillStatus, amount int64, createdAt time.Time) *Bill {
	b := &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        uuid.New(),
		Amount:            decimal.NewFromInt(amount),
		Status:            status,
	}
	b.CreatedAt = createdAt
	return b
}

func summaryTxn(billID uuid.UUID, amount int64, method PaymentMethod, at time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		BillID:    billID,
		Amount:    decimal.NewFromInt(amount),
		Method:    method,
		PaidAt:    at,
		CreatedAt: at,
	}
}

func TestSummarize(t *testing.T) {
	r := may2024(t)
	inside := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	outside := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)

	snap := LedgerSnapshot{
		Transactions: []*Transaction{
			summaryTxn(uuid.New(), 47500, PaymentMethodCash, inside),
			summaryTxn(uuid.New(), 10000, PaymentMethodBankTransfer, inside),
			summaryTxn(uuid.New(), 99999, PaymentMethodCash, outside),
		},
		OutstandingBills: []*Bill{
			summaryBill(BillStatusUnpaid, 30000, inside),
			summaryBill(BillStatusUnpaid, 12500, inside),
			summaryBill(BillStatusUnpaid, 77777, outside),
			summaryBill(BillStatusPaid, 11111, inside),
		},
	}

	s := Summarize(r, "IDR", snap)

	assert.Equal(t, "57500", s.TotalCollected.String())
	assert.Equal(t, "42500", s.TotalOutstanding.String())
	assert.Equal(t, 2, s.TransactionCount)
	assert.Equal(t, 2, s.OutstandingBillCount)
	assert.Equal(t, "47500", s.CollectedByMethod[PaymentMethodCash].String())
	assert.Equal(t, "10000", s.CollectedByMethod[PaymentMethodBankTransfer].String())
	assert.Equal(t, "IDR", s.Currency)
}

func TestSummarize_BillPaidMidAggregationCountedOnce(t *testing.T) {
	r := may2024(t)
	at := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	bill := summaryBill(BillStatusUnpaid, 47500, at)
	txn := summaryTxn(bill.ID, 47500, PaymentMethodCash, at.Add(time.Hour))

	s := Summarize(r, "IDR", LedgerSnapshot{
		Transactions:     []*Transaction{txn},
		OutstandingBills: []*Bill{bill},
	})

	assert.Equal(t, "47500", s.TotalCollected.String())
	assert.True(t, s.TotalOutstanding.IsZero())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(may2024(t), "IDR", LedgerSnapshot{})
	assert.True(t, s.TotalCollected.IsZero())
	assert.True(t, s.TotalOutstanding.IsZero())
	assert.Zero(t, s.TransactionCount)
}
