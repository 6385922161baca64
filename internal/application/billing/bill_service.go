package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/lock"
	"github.com/waterbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CreateBillInput identifies the (customer, period) slot to bill
type CreateBillInput struct {
	CustomerID uuid.UUID
	Period     string
}

// PayBillInput settles a bill in full
type PayBillInput struct {
	Amount decimal.Decimal
	Method string
}

// BillListFilter narrows a bill listing
type BillListFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     string
	Period     string
}

// BillServiceDeps holds the collaborators of BillService
type BillServiceDeps struct {
	Customers    billing.CustomerRepository
	Readings     billing.ReadingRepository
	Bills        billing.BillRepository
	Transactions billing.TransactionRepository
	Resolver     *billing.TariffResolver
	Calculator   *billing.Calculator
	Locker       lock.Locker
	Authorizer   *Authorizer
	Events       shared.EventPublisher
	Logger       *zap.Logger
}

// BillService owns the bill lifecycle: creation, payment and cancellation
type BillService struct {
	customers    billing.CustomerRepository
	readings     billing.ReadingRepository
	bills        billing.BillRepository
	transactions billing.TransactionRepository
	resolver     *billing.TariffResolver
	calculator   *billing.Calculator
	locker       lock.Locker
	authz        *Authorizer
	events       shared.EventPublisher
	logger       *zap.Logger
	newReference func() string
}

// NewBillService creates a new BillService
func NewBillService(deps BillServiceDeps) *BillService {
	return &BillService{
		customers:    deps.Customers,
		readings:     deps.Readings,
		bills:        deps.Bills,
		transactions: deps.Transactions,
		resolver:     deps.Resolver,
		calculator:   deps.Calculator,
		locker:       deps.Locker,
		authz:        deps.Authorizer,
		events:       deps.Events,
		logger:       deps.Logger,
		newReference: func() string { return ulid.Make().String() },
	}
}

// Create bills the stored reading of a customer and period. Calls for the
// same slot are serialized; all but the first fail with DUPLICATE_BILL.
func (s *BillService) Create(ctx context.Context, actor identity.Actor, input CreateBillInput) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrCustomerID, input.CustomerID.String(), telemetry.AttrPeriod, input.Period)

	bill, err := s.create(ctx, actor, input)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrBillID, bill.ID.String(), telemetry.AttrAmount, bill.Amount.String())
	publishEvents(ctx, s.events, s.logger, bill)

	s.logger.Info("Bill created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("customer_id", bill.CustomerID.String()),
		zap.String("period", bill.Period.String()),
		zap.String("amount", bill.Amount.String()))
	resp := toBillResponse(bill)
	return &resp, nil
}

func (s *BillService) create(ctx context.Context, actor identity.Actor, input CreateBillInput) (*billing.Bill, error) {
	if err := s.authz.Require(ctx, actor, identity.OpBillCreate); err != nil {
		return nil, err
	}
	period, err := billing.ParseBillingPeriod(input.Period)
	if err != nil {
		return nil, err
	}

	lease, err := s.locker.Acquire(ctx, lock.BillKey(input.CustomerID.String(), period.String()))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) && ctx.Err() == nil {
			return nil, shared.NewDomainError(shared.CodeDuplicateBill,
				"A bill for this customer and period is already being created")
		}
		return nil, fmt.Errorf("failed to lock bill slot: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release bill lock", zap.Error(err))
		}
	}()

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Customer not found")
	}
	if !customer.IsActive() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Customer is inactive")
	}

	existing, err := s.bills.FindActiveByCustomerPeriod(ctx, customer.ID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing bill: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError(shared.CodeDuplicateBill,
			fmt.Sprintf("Customer %s already has a %s bill for %s", customer.MeterNumber, existing.Status, period))
	}

	reading, err := s.readings.FindByCustomerPeriod(ctx, customer.ID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}
	if reading == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("No reading recorded for %s in %s", customer.MeterNumber, period))
	}

	tariff, err := s.resolver.Resolve(ctx, customer.ID, period)
	if err != nil {
		return nil, err
	}
	priced, err := s.calculator.Compute(reading, tariff.Snapshot())
	if err != nil {
		return nil, err
	}

	bill, err := billing.NewBill(customer.ID, reading, priced)
	if err != nil {
		return nil, err
	}
	if actor.UserID != uuid.Nil {
		createdBy := actor.UserID
		bill.CreatedBy = &createdBy
	}

	// the storage uniqueness constraint still guards against other processes
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// RecordPayment settles an UNPAID bill in full and records its transaction.
// Concurrent payments of one bill yield exactly one success.
func (s *BillService) RecordPayment(ctx context.Context, actor identity.Actor, billID uuid.UUID, input PayBillInput) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.AttrBillID, billID.String(),
		telemetry.AttrAmount, input.Amount.String(),
		telemetry.AttrMethod, input.Method,
	)

	if err := s.authz.Require(ctx, actor, identity.OpBillPay); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	bill, err := s.find(ctx, billID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	method := billing.PaymentMethod(strings.ToUpper(strings.TrimSpace(input.Method)))
	txn, err := bill.Pay(input.Amount, method, s.newReference(), actor.UserID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.bills.SavePayment(ctx, bill, txn); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.AddEvent(span, "payment_applied", telemetry.AttrMethod, string(method))
	publishEvents(ctx, s.events, s.logger, bill)

	s.logger.Info("Bill paid",
		zap.String("bill_id", bill.ID.String()),
		zap.String("reference", txn.ReferenceNumber),
		zap.String("amount", txn.Amount.String()),
		zap.String("method", string(method)))
	return &PaymentResponse{
		Bill:        toBillResponse(bill),
		Transaction: toTransactionResponse(txn),
	}, nil
}

// Cancel voids an UNPAID bill, freeing its period for a new bill
func (s *BillService) Cancel(ctx context.Context, actor identity.Actor, billID uuid.UUID, reason string) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "cancel")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.AttrBillID, billID.String())

	if err := s.authz.Require(ctx, actor, identity.OpBillCancel); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	bill, err := s.find(ctx, billID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := bill.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.bills.SaveCancellation(ctx, bill); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	publishEvents(ctx, s.events, s.logger, bill)

	s.logger.Info("Bill cancelled",
		zap.String("bill_id", bill.ID.String()),
		zap.String("reason", bill.CancelReason))
	resp := toBillResponse(bill)
	return &resp, nil
}

// GetByID returns a bill. Customers may only read their own.
func (s *BillService) GetByID(ctx context.Context, actor identity.Actor, billID uuid.UUID) (*BillResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpBillReadOwn); err != nil {
		return nil, err
	}
	bill, err := s.find(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !s.authz.Allows(actor, identity.OpBillRead) && !actor.OwnsCustomer(bill.CustomerID) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Bill belongs to another customer")
	}
	resp := toBillResponse(bill)
	return &resp, nil
}

// List returns a page of bills. A customer's listing is pinned to its own account.
func (s *BillService) List(ctx context.Context, actor identity.Actor, filter BillListFilter) (*shared.Paginated[BillResponse], error) {
	if err := s.authz.Require(ctx, actor, identity.OpBillReadOwn); err != nil {
		return nil, err
	}
	if !s.authz.Allows(actor, identity.OpBillRead) {
		if actor.CustomerID == nil {
			return nil, shared.NewDomainError(shared.CodeForbidden, "No customer account is bound to this login")
		}
		if filter.CustomerID != nil && *filter.CustomerID != *actor.CustomerID {
			return nil, shared.NewDomainError(shared.CodeForbidden, "Bills of another customer cannot be listed")
		}
		filter.CustomerID = actor.CustomerID
	}

	query := billing.BillFilter{Filter: filter.Filter, CustomerID: filter.CustomerID}
	if filter.Status != "" {
		status := billing.BillStatus(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid bill status: "+filter.Status)
		}
		query.Status = &status
	}
	if filter.Period != "" {
		period, err := billing.ParseBillingPeriod(filter.Period)
		if err != nil {
			return nil, err
		}
		query.Period = &period
	}
	query.Normalize()

	bills, total, err := s.bills.FindAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	page := shared.NewPaginated(toBillResponses(bills), total, query.Page, query.PageSize)
	return &page, nil
}

// LookupUnpaidByMeter is the public read path: the UNPAID bills of a meter,
// newest first. It never mutates and needs no login.
func (s *BillService) LookupUnpaidByMeter(ctx context.Context, actor identity.Actor, meterNumber string) ([]BillResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpBillLookupByMeter); err != nil {
		return nil, err
	}
	meterNumber = strings.TrimSpace(meterNumber)
	if meterNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Meter number is required")
	}

	customer, err := s.customers.FindByMeterNumber(ctx, meterNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "No customer with this meter number")
	}

	bills, err := s.bills.FindUnpaidByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid bills: %w", err)
	}
	return toBillResponses(bills), nil
}

func (s *BillService) find(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	bill, err := s.bills.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	if bill == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Bill not found")
	}
	return bill, nil
}

// GetTransaction returns the payment transaction of a PAID bill
func (s *BillService) GetTransaction(ctx context.Context, actor identity.Actor, billID uuid.UUID) (*TransactionResponse, error) {
	bill, err := s.GetByID(ctx, actor, billID)
	if err != nil {
		return nil, err
	}
	txn, err := s.transactions.FindByBillID(ctx, bill.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Bill has no payment transaction")
	}
	resp := toTransactionResponse(txn)
	return &resp, nil
}
