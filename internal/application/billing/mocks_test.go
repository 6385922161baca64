package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared"
)

// MockCustomerRepository is a mock implementation of billing.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *billing.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *billing.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByMeterNumber(ctx context.Context, meterNumber string) (*billing.Customer, error) {
	args := m.Called(ctx, meterNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter billing.CustomerFilter) ([]*billing.Customer, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) SaveTariffAssignment(ctx context.Context, customer *billing.Customer, assignments ...*billing.TariffAssignment) error {
	args := m.Called(ctx, customer, assignments)
	return args.Error(0)
}

// MockTariffRepository is a mock implementation of billing.TariffRepository
type MockTariffRepository struct {
	mock.Mock
}

func (m *MockTariffRepository) Create(ctx context.Context, tariff *billing.Tariff) error {
	args := m.Called(ctx, tariff)
	return args.Error(0)
}

func (m *MockTariffRepository) Update(ctx context.Context, tariff *billing.Tariff) error {
	args := m.Called(ctx, tariff)
	return args.Error(0)
}

func (m *MockTariffRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Tariff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Tariff), args.Error(1)
}

func (m *MockTariffRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Tariff, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.Tariff), args.Get(1).(int64), args.Error(2)
}

// MockAssignmentRepository is a mock implementation of billing.TariffAssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *billing.TariffAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) FindEffective(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.TariffAssignment, error) {
	args := m.Called(ctx, customerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TariffAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.TariffAssignment, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]*billing.TariffAssignment), args.Error(1)
}

// MockReadingRepository is a mock implementation of billing.ReadingRepository
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) Create(ctx context.Context, reading *billing.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockReadingRepository) FindByCustomerPeriod(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.Reading, error) {
	args := m.Called(ctx, customerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Reading), args.Error(1)
}

func (m *MockReadingRepository) FindLatestBefore(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.Reading, error) {
	args := m.Called(ctx, customerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Reading), args.Error(1)
}

// MockBillRepository is a mock implementation of billing.BillRepository
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) Create(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindActiveByCustomerPeriod(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.Bill, error) {
	args := m.Called(ctx, customerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.Bill, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindAll(ctx context.Context, filter billing.BillFilter) ([]*billing.Bill, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.Bill), args.Get(1).(int64), args.Error(2)
}

func (m *MockBillRepository) SavePayment(ctx context.Context, bill *billing.Bill, txn *billing.Transaction) error {
	args := m.Called(ctx, bill, txn)
	return args.Error(0)
}

func (m *MockBillRepository) SaveCancellation(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of billing.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByBillID(ctx context.Context, billID uuid.UUID) (*billing.Transaction, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByDateRange(ctx context.Context, r billing.DateRange) ([]*billing.Transaction, error) {
	args := m.Called(ctx, r)
	return args.Get(0).([]*billing.Transaction), args.Error(1)
}

// MockLedgerRepository is a mock implementation of billing.LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Snapshot(ctx context.Context, r billing.DateRange) (*billing.LedgerSnapshot, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.LedgerSnapshot), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// memoryBills is a BillRepository fake that enforces the one-active-bill
// constraint the way the storage index does
type memoryBills struct {
	MockBillRepository
	mu    sync.Mutex
	bills []*billing.Bill
}

func (r *memoryBills) Create(_ context.Context, bill *billing.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.CustomerID == bill.CustomerID && b.Period == bill.Period && b.Status != billing.BillStatusCancelled {
			return shared.NewDomainError(shared.CodeDuplicateBill, "duplicate")
		}
	}
	r.bills = append(r.bills, bill)
	return nil
}

func (r *memoryBills) FindActiveByCustomerPeriod(_ context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.CustomerID == customerID && b.Period == period && b.Status != billing.BillStatusCancelled {
			return b, nil
		}
	}
	return nil, nil
}

func (r *memoryBills) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bills)
}
