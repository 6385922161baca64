package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func sampleTransactions() []*billing.Transaction {
	paid := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	return []*billing.Transaction{
		{
			ID: uuid.New(), BillID: uuid.New(), CustomerID: uuid.New(),
			ReferenceNumber: "01HZA", Amount: decimal.NewFromInt(47500), Currency: "IDR",
			Method: billing.PaymentMethodCash, PaidAt: paid, CreatedAt: paid,
		},
		nil,
		{
			ID: uuid.New(), BillID: uuid.New(), CustomerID: uuid.New(),
			ReferenceNumber: "01HZB", Amount: decimal.RequireFromString("12500.50"), Currency: "IDR",
			Method: billing.PaymentMethodEWallet, PaidAt: paid.Add(time.Hour), CreatedAt: paid.Add(time.Hour),
		},
	}
}

func sampleSummary() billing.FinancialSummary {
	return billing.FinancialSummary{
		Range: billing.DateRange{
			From: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		Currency:             "IDR",
		TotalCollected:       decimal.RequireFromString("60000.50"),
		TotalOutstanding:     decimal.NewFromInt(10000),
		TransactionCount:     2,
		OutstandingBillCount: 1,
		CollectedByMethod: map[billing.PaymentMethod]decimal.Decimal{
			billing.PaymentMethodEWallet: decimal.RequireFromString("12500.50"),
			billing.PaymentMethodCash:    decimal.NewFromInt(47500),
		},
	}
}

func TestTransactionsCSV(t *testing.T) {
	out, err := TransactionsCSV(sampleTransactions())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "reference_number,paid_at,bill_id,customer_id,method,amount,currency", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "01HZA,2024-05-10T08:00:00Z,"))
	assert.True(t, strings.HasSuffix(lines[2], ",E_WALLET,12500.5,IDR"))

	rows, err := ParseTransactionsCSV(out)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(decimal.RequireFromString(r.Amount))
	}
	assert.True(t, total.Equal(decimal.RequireFromString("60000.50")))
}

func TestSummaryCSV(t *testing.T) {
	out, err := SummaryCSV(sampleSummary())
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "metric,value\n"))
	assert.Contains(t, text, "total_collected,60000.5\n")
	assert.Contains(t, text, "transaction_count,2\n")
	assert.Contains(t, text, "outstanding_bill_count,1\n")
	// methods are listed in a stable order
	assert.Less(t, strings.Index(text, "collected_cash"), strings.Index(text, "collected_e_wallet"))
}

func TestLedgerExporter_Export(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalObjectStorage(root)
	require.NoError(t, err)
	exporter := NewLedgerExporter(store, zap.NewNop())

	first, err := exporter.Export(context.Background(), sampleSummary(), sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Rows)
	assert.True(t, strings.HasPrefix(first.TransactionsKey, "ledger/20240501_20240601/"))
	assert.True(t, strings.HasSuffix(first.SummaryKey, "/summary.csv"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(first.TransactionsKey)))
	require.NoError(t, err)
	rows, err := ParseTransactionsCSV(data)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	second, err := exporter.Export(context.Background(), sampleSummary(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.TransactionsKey, second.TransactionsKey)
	assert.Zero(t, second.Rows)
}
