package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared/valueobject"
	"gorm.io/driver/sqlite"
)

// newTestDatabase opens a file-backed sqlite database so concurrent
// goroutines share one schema
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "waterbill.db") + "?_busy_timeout=5000&_txlock=immediate"
	d, err := Open(sqlite.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate())
	t.Cleanup(func() { _ = d.Close() })
	return d
}

type fixture struct {
	db       *Database
	tariffs  *GormTariffRepository
	customer *billing.Customer
	tariff   *billing.Tariff
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return seedFixture(t, newTestDatabase(t))
}

func seedFixture(t *testing.T, d *Database) *fixture {
	t.Helper()
	ctx := context.Background()

	tariff, err := billing.NewTariff("Household", decimal.NewFromInt(10000), decimal.NewFromInt(2500))
	require.NoError(t, err)
	tariffs := NewGormTariffRepository(d.DB)
	require.NoError(t, tariffs.Create(ctx, tariff))

	customer, err := billing.NewCustomer("MTR-0042", "Siti Rahma", "Jl. Merdeka 1", tariff.ID)
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(d.DB).Create(ctx, customer))

	return &fixture{db: d, tariffs: tariffs, customer: customer, tariff: tariff}
}

func (f *fixture) newReading(t *testing.T, period billing.BillingPeriod, previous, current int64) *billing.Reading {
	t.Helper()
	reading, err := billing.NewReading(f.customer.ID, period,
		decimal.NewFromInt(previous), decimal.NewFromInt(current), false, time.Now())
	require.NoError(t, err)
	require.NoError(t, NewGormReadingRepository(f.db.DB).Create(context.Background(), reading))
	return reading
}

func (f *fixture) billFor(t *testing.T, reading *billing.Reading) *billing.Bill {
	t.Helper()
	priced, err := billing.NewCalculator(valueobject.IDR, -1).Compute(reading, f.tariff.Snapshot())
	require.NoError(t, err)
	bill, err := billing.NewBill(f.customer.ID, reading, priced)
	require.NoError(t, err)
	return bill
}

func (f *fixture) newBill(t *testing.T, period billing.BillingPeriod, previous, current int64) *billing.Bill {
	t.Helper()
	return f.billFor(t, f.newReading(t, period, previous, current))
}

func mustPay(t *testing.T, bill *billing.Bill) *billing.Transaction {
	t.Helper()
	txn, err := bill.Pay(bill.Amount, billing.PaymentMethodCash, "REF-"+uuid.NewString()[:8], uuid.New())
	require.NoError(t, err)
	return txn
}
