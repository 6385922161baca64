// Package export writes ledger data as CSV files to object storage.
package export

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

const contentTypeCSV = "text/csv; charset=utf-8"

// TransactionRow is one line of the transactions file
type TransactionRow struct {
	ReferenceNumber string `csv:"reference_number"`
	PaidAt          string `csv:"paid_at"`
	BillID          string `csv:"bill_id"`
	CustomerID      string `csv:"customer_id"`
	Method          string `csv:"method"`
	Amount          string `csv:"amount"`
	Currency        string `csv:"currency"`
}

// SummaryRow is one metric of the summary trailer file
type SummaryRow struct {
	Metric string `csv:"metric"`
	Value  string `csv:"value"`
}

// LedgerExport locates the files of one export
type LedgerExport struct {
	TransactionsKey      string
	TransactionsLocation string
	SummaryKey           string
	SummaryLocation      string
	Rows                 int
}

// LedgerExporter writes ledger exports to an object store
type LedgerExporter struct {
	store  storage.ObjectStorage
	logger *zap.Logger
	now    func() time.Time
}

// NewLedgerExporter creates an exporter over store
func NewLedgerExporter(store storage.ObjectStorage, logger *zap.Logger) *LedgerExporter {
	return &LedgerExporter{store: store, logger: logger, now: time.Now}
}

// Export writes the transactions and the summary of one date range. Each
// export gets its own prefix, so repeated exports never overwrite each other.
func (e *LedgerExporter) Export(ctx context.Context, summary billing.FinancialSummary, txns []*billing.Transaction) (*LedgerExport, error) {
	rows := transactionRows(txns)
	txnCSV, err := marshalTransactions(rows)
	if err != nil {
		return nil, err
	}
	summaryCSV, err := SummaryCSV(summary)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("ledger/%s_%s/%s",
		summary.Range.From.UTC().Format("20060102"),
		summary.Range.To.UTC().Format("20060102"),
		ulid.MustNew(ulid.Timestamp(e.now()), ulid.DefaultEntropy()).String())

	txnObj, err := e.store.Put(ctx, prefix+"/transactions.csv", txnCSV, contentTypeCSV)
	if err != nil {
		return nil, fmt.Errorf("write transactions: %w", err)
	}
	summaryObj, err := e.store.Put(ctx, prefix+"/summary.csv", summaryCSV, contentTypeCSV)
	if err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	e.logger.Info("Ledger exported",
		zap.String("prefix", prefix),
		zap.Int("rows", len(rows)),
		zap.Int64("bytes", txnObj.Size+summaryObj.Size))

	return &LedgerExport{
		TransactionsKey:      txnObj.Key,
		TransactionsLocation: txnObj.Location,
		SummaryKey:           summaryObj.Key,
		SummaryLocation:      summaryObj.Location,
		Rows:                 len(rows),
	}, nil
}

// TransactionsCSV renders transactions with a header row. Timestamps are UTC RFC 3339.
func TransactionsCSV(txns []*billing.Transaction) ([]byte, error) {
	return marshalTransactions(transactionRows(txns))
}

// transactionRows maps transactions to CSV rows, skipping nil entries
func transactionRows(txns []*billing.Transaction) []*TransactionRow {
	return lo.FilterMap(txns, func(t *billing.Transaction, _ int) (*TransactionRow, bool) {
		if t == nil {
			return nil, false
		}
		return &TransactionRow{
			ReferenceNumber: t.ReferenceNumber,
			PaidAt:          t.PaidAt.UTC().Format(time.RFC3339),
			BillID:          t.BillID.String(),
			CustomerID:      t.CustomerID.String(),
			Method:          string(t.Method),
			Amount:          t.Amount.String(),
			Currency:        t.Currency,
		}, true
	})
}

func marshalTransactions(rows []*TransactionRow) ([]byte, error) {
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal transactions: %w", err)
	}
	return out, nil
}

// SummaryCSV renders the summary as metric,value pairs. Per-method totals
// follow the fixed metrics in method order.
func SummaryCSV(s billing.FinancialSummary) ([]byte, error) {
	rows := []*SummaryRow{
		{Metric: "from", Value: s.Range.From.UTC().Format(time.RFC3339)},
		{Metric: "to", Value: s.Range.To.UTC().Format(time.RFC3339)},
		{Metric: "currency", Value: s.Currency},
		{Metric: "total_collected", Value: s.TotalCollected.String()},
		{Metric: "total_outstanding", Value: s.TotalOutstanding.String()},
		{Metric: "transaction_count", Value: fmt.Sprint(s.TransactionCount)},
		{Metric: "outstanding_bill_count", Value: fmt.Sprint(s.OutstandingBillCount)},
	}

	methods := lo.Keys(s.CollectedByMethod)
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	for _, m := range methods {
		rows = append(rows, &SummaryRow{
			Metric: "collected_" + strings.ToLower(string(m)),
			Value:  s.CollectedByMethod[m].String(),
		})
	}

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return out, nil
}

// ParseTransactionsCSV reads back a transactions file
func ParseTransactionsCSV(data []byte) ([]*TransactionRow, error) {
	var rows []*TransactionRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal transactions: %w", err)
	}
	return rows, nil
}
