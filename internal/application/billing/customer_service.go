package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CreateCustomerInput contains the fields of a new customer
type CreateCustomerInput struct {
	MeterNumber string
	Name        string
	Address     string
	Phone       string
	TariffID    uuid.UUID
}

// UpdateCustomerInput changes a customer's display data
type UpdateCustomerInput struct {
	Name    string
	Address string
	Phone   string
}

// AssignTariffInput moves a customer to another tariff from a period on
type AssignTariffInput struct {
	TariffID      uuid.UUID
	EffectiveFrom string
}

// CustomerService manages metered customers
type CustomerService struct {
	customers   billing.CustomerRepository
	tariffs     billing.TariffRepository
	assignments billing.TariffAssignmentRepository
	authz       *Authorizer
	logger      *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customers billing.CustomerRepository,
	tariffs billing.TariffRepository,
	assignments billing.TariffAssignmentRepository,
	authz *Authorizer,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customers:   customers,
		tariffs:     tariffs,
		assignments: assignments,
		authz:       authz,
		logger:      logger,
	}
}

// Create registers a customer on an existing tariff
func (s *CustomerService) Create(ctx context.Context, actor identity.Actor, input CreateCustomerInput) (*CustomerResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpCustomerManage); err != nil {
		return nil, err
	}
	if err := s.requireTariff(ctx, input.TariffID); err != nil {
		return nil, err
	}

	customer, err := billing.NewCustomer(input.MeterNumber, input.Name, input.Address, input.TariffID)
	if err != nil {
		return nil, err
	}
	customer.Phone = input.Phone

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("meter_number", customer.MeterNumber))
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// Update changes name, address and phone
func (s *CustomerService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input UpdateCustomerInput) (*CustomerResponse, error) {
	return s.mutate(ctx, actor, id, func(c *billing.Customer) error {
		return c.UpdateProfile(input.Name, input.Address, input.Phone)
	})
}

// Deactivate stops billing a customer. Its history is kept.
func (s *CustomerService) Deactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) (*CustomerResponse, error) {
	return s.mutate(ctx, actor, id, (*billing.Customer).Deactivate)
}

// Activate resumes billing a customer
func (s *CustomerService) Activate(ctx context.Context, actor identity.Actor, id uuid.UUID) (*CustomerResponse, error) {
	return s.mutate(ctx, actor, id, (*billing.Customer).Activate)
}

// AssignTariff reassigns the customer's tariff from a period on. On the first
// reassignment the previous tariff is recorded as in force since the customer
// was created, so earlier periods keep resolving to it.
func (s *CustomerService) AssignTariff(ctx context.Context, actor identity.Actor, id uuid.UUID, input AssignTariffInput) (*CustomerResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpCustomerManage); err != nil {
		return nil, err
	}
	effectiveFrom, err := billing.ParseBillingPeriod(input.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	if err := s.requireTariff(ctx, input.TariffID); err != nil {
		return nil, err
	}

	customer, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.assignments.FindByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tariff history: %w", err)
	}

	var records []*billing.TariffAssignment
	if opening := billing.PeriodOf(customer.CreatedAt); len(history) == 0 && opening.Before(effectiveFrom) {
		records = append(records, billing.NewTariffAssignment(customer.ID, customer.TariffID, opening))
	}

	assignment, err := customer.AssignTariff(input.TariffID, effectiveFrom)
	if err != nil {
		return nil, err
	}
	records = append(records, assignment)

	if err := s.customers.SaveTariffAssignment(ctx, customer, records...); err != nil {
		return nil, err
	}

	s.logger.Info("Customer tariff reassigned",
		zap.String("customer_id", customer.ID.String()),
		zap.String("tariff_id", input.TariffID.String()),
		zap.String("effective_from", effectiveFrom.String()))
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// GetByID returns one customer
func (s *CustomerService) GetByID(ctx context.Context, actor identity.Actor, id uuid.UUID) (*CustomerResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpCustomerRead); err != nil {
		return nil, err
	}
	customer, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// List returns a page of customers
func (s *CustomerService) List(ctx context.Context, actor identity.Actor, filter billing.CustomerFilter) (*shared.Paginated[CustomerResponse], error) {
	if err := s.authz.Require(ctx, actor, identity.OpCustomerRead); err != nil {
		return nil, err
	}
	filter.Normalize()
	customers, total, err := s.customers.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	page := shared.NewPaginated(toCustomerResponses(customers), total, filter.Page, filter.PageSize)
	return &page, nil
}

// TariffHistory returns the customer's tariff assignments, oldest first
func (s *CustomerService) TariffHistory(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]TariffAssignmentResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpCustomerRead); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.assignments.FindByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tariff history: %w", err)
	}
	return lo.Map(history, func(a *billing.TariffAssignment, _ int) TariffAssignmentResponse {
		return TariffAssignmentResponse{
			TariffID:      a.TariffID,
			EffectiveFrom: a.EffectiveFrom.String(),
			CreatedAt:     a.CreatedAt,
		}
	}), nil
}

func (s *CustomerService) mutate(ctx context.Context, actor identity.Actor, id uuid.UUID, fn func(*billing.Customer) error) (*CustomerResponse, error) {
	if err := s.authz.Require(ctx, actor, identity.OpCustomerManage); err != nil {
		return nil, err
	}
	customer, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(customer); err != nil {
		return nil, err
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	resp := toCustomerResponse(customer)
	return &resp, nil
}

func (s *CustomerService) find(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Customer not found")
	}
	return customer, nil
}

func (s *CustomerService) requireTariff(ctx context.Context, id uuid.UUID) error {
	tariff, err := s.tariffs.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get tariff: %w", err)
	}
	if tariff == nil {
		return shared.NewDomainError(shared.CodeNotFound, "Tariff not found")
	}
	return nil
}
