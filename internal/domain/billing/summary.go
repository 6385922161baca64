package billing

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// LedgerSnapshot is a consistent read of the ledger for a date range: the
// transactions created in it and the bills still UNPAID that were created in it.
type LedgerSnapshot struct {
	Transactions     []*Transaction
	OutstandingBills []*Bill
}

// FinancialSummary is a derived view over a date range. It is never persisted.
type FinancialSummary struct {
	Range                DateRange
	Currency             string
	TotalCollected       decimal.Decimal
	TotalOutstanding     decimal.Decimal
	TransactionCount     int
	OutstandingBillCount int
	CollectedByMethod    map[PaymentMethod]decimal.Decimal
}

// Summarize folds a ledger snapshot into a summary. Records outside the range,
// and bills no longer UNPAID, are ignored so a stale snapshot cannot double count.
func Summarize(r DateRange, currency string, snap LedgerSnapshot) FinancialSummary {
	txns := lo.Filter(snap.Transactions, func(t *Transaction, _ int) bool {
		return t != nil && r.Contains(t.CreatedAt)
	})
	paidBills := lo.SliceToMap(txns, func(t *Transaction) (string, struct{}) {
		return t.BillID.String(), struct{}{}
	})
	outstanding := lo.Filter(snap.OutstandingBills, func(b *Bill, _ int) bool {
		if b == nil || !b.IsUnpaid() || !r.Contains(b.CreatedAt) {
			return false
		}
		_, paid := paidBills[b.ID.String()]
		return !paid
	})

	byMethod := make(map[PaymentMethod]decimal.Decimal)
	collected := lo.Reduce(txns, func(acc decimal.Decimal, t *Transaction, _ int) decimal.Decimal {
		byMethod[t.Method] = byMethod[t.Method].Add(t.Amount)
		return acc.Add(t.Amount)
	}, decimal.Zero)
	due := lo.Reduce(outstanding, func(acc decimal.Decimal, b *Bill, _ int) decimal.Decimal {
		return acc.Add(b.Amount)
	}, decimal.Zero)

	return FinancialSummary{
		Range:                r,
		Currency:             currency,
		TotalCollected:       collected,
		TotalOutstanding:     due,
		TransactionCount:     len(txns),
		OutstandingBillCount: len(outstanding),
		CollectedByMethod:    byMethod,
	}
}
