package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/shared"
)

// TariffResolver selects the tariff in force for a customer and period
type TariffResolver struct {
	customers   CustomerRepository
	tariffs     TariffRepository
	assignments TariffAssignmentRepository
}

// NewTariffResolver creates a resolver
func NewTariffResolver(customers CustomerRepository, tariffs TariffRepository, assignments TariffAssignmentRepository) *TariffResolver {
	return &TariffResolver{
		customers:   customers,
		tariffs:     tariffs,
		assignments: assignments,
	}
}

// Resolve returns the tariff assigned to the customer as of the given period.
// The latest assignment effective at or before the period wins; with no such
// assignment the customer's current tariff is used.
func (r *TariffResolver) Resolve(ctx context.Context, customerID uuid.UUID, period BillingPeriod) (*Tariff, error) {
	if !period.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid billing period")
	}

	customer, err := r.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Customer not found")
	}

	tariffID := customer.TariffID
	assignment, err := r.assignments.FindEffective(ctx, customerID, period)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		tariffID = assignment.TariffID
	}

	tariff, err := r.tariffs.FindByID(ctx, tariffID)
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Tariff %s assigned to customer %s not found", tariffID, customer.MeterNumber))
	}
	return tariff, nil
}
