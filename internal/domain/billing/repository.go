package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/shared"
)

// CustomerFilter extends the shared filter with customer-specific options
type CustomerFilter struct {
	shared.Filter
	Status *CustomerStatus
	Search string // matches meter number or name
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// Create persists a new customer. Returns ALREADY_EXISTS on a taken meter number.
	Create(ctx context.Context, customer *Customer) error

	// Update saves changes to an existing customer
	Update(ctx context.Context, customer *Customer) error

	// FindByID returns nil, nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByMeterNumber returns nil, nil when absent
	FindByMeterNumber(ctx context.Context, meterNumber string) (*Customer, error)

	// FindAll lists customers with paging
	FindAll(ctx context.Context, filter CustomerFilter) ([]*Customer, int64, error)

	// SaveTariffAssignment updates the customer and appends the assignments
	// to its history in one transaction
	SaveTariffAssignment(ctx context.Context, customer *Customer, assignments ...*TariffAssignment) error
}

// TariffRepository defines the interface for tariff persistence
type TariffRepository interface {
	Create(ctx context.Context, tariff *Tariff) error
	Update(ctx context.Context, tariff *Tariff) error
	// FindByID returns nil, nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Tariff, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Tariff, int64, error)
}

// TariffAssignmentRepository stores tariff history per customer
type TariffAssignmentRepository interface {
	Create(ctx context.Context, assignment *TariffAssignment) error

	// FindEffective returns the latest assignment with EffectiveFrom <= period,
	// or nil, nil if none precedes it
	FindEffective(ctx context.Context, customerID uuid.UUID, period BillingPeriod) (*TariffAssignment, error)

	// FindByCustomer returns the history ordered by EffectiveFrom ascending
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*TariffAssignment, error)
}

// ReadingRepository defines the interface for meter reading persistence
type ReadingRepository interface {
	// Create persists a reading. Returns ALREADY_EXISTS if the period was already read.
	Create(ctx context.Context, reading *Reading) error

	// FindByCustomerPeriod returns nil, nil when absent
	FindByCustomerPeriod(ctx context.Context, customerID uuid.UUID, period BillingPeriod) (*Reading, error)

	// FindLatestBefore returns the most recent reading of a period before the given one
	FindLatestBefore(ctx context.Context, customerID uuid.UUID, period BillingPeriod) (*Reading, error)
}

// BillFilter extends the shared filter with bill-specific options
type BillFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *BillStatus
	Period     *BillingPeriod
}

// BillRepository defines the interface for bill persistence
type BillRepository interface {
	// Create persists a new UNPAID bill. At most one non-cancelled bill may exist
	// per customer and period; a violation returns DUPLICATE_BILL.
	Create(ctx context.Context, bill *Bill) error

	// FindByID returns nil, nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindActiveByCustomerPeriod returns the UNPAID or PAID bill for the key, or nil, nil
	FindActiveByCustomerPeriod(ctx context.Context, customerID uuid.UUID, period BillingPeriod) (*Bill, error)

	// FindUnpaidByCustomer returns UNPAID bills ordered newest first
	FindUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Bill, error)

	// FindAll lists bills with paging
	FindAll(ctx context.Context, filter BillFilter) ([]*Bill, int64, error)

	// SavePayment atomically flips the bill from UNPAID to PAID and inserts its
	// transaction. If the stored bill is no longer UNPAID nothing is written and
	// INVALID_STATE is returned.
	SavePayment(ctx context.Context, bill *Bill, txn *Transaction) error

	// SaveCancellation flips the bill from UNPAID to CANCELLED, with the same
	// conditional semantics as SavePayment
	SaveCancellation(ctx context.Context, bill *Bill) error
}

// TransactionRepository provides read access to payment transactions.
// Transactions are written only through BillRepository.SavePayment.
type TransactionRepository interface {
	// FindByBillID returns nil, nil when the bill has no transaction
	FindByBillID(ctx context.Context, billID uuid.UUID) (*Transaction, error)

	// FindByDateRange returns transactions created in the range, oldest first
	FindByDateRange(ctx context.Context, r DateRange) ([]*Transaction, error)
}

// LedgerRepository reads bills and transactions from one consistent view
type LedgerRepository interface {
	Snapshot(ctx context.Context, r DateRange) (*LedgerSnapshot, error)
}
