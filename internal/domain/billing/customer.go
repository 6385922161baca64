package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/shared"
)

// CustomerStatus represents whether a customer can be billed
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusInactive CustomerStatus = "INACTIVE"
)

// IsValid checks if the status is a valid CustomerStatus
func (s CustomerStatus) IsValid() bool {
	return s == CustomerStatusActive || s == CustomerStatusInactive
}

// Customer is a metered account. It is never deleted; deactivation flips its status.
type Customer struct {
	shared.BaseAggregateRoot
	MeterNumber string
	Name        string
	Address     string
	Phone       string
	Status      CustomerStatus
	TariffID    uuid.UUID
}

// NewCustomer creates an active customer on the given tariff
func NewCustomer(meterNumber, name, address string, tariffID uuid.UUID) (*Customer, error) {
	meterNumber = strings.TrimSpace(meterNumber)
	if meterNumber == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Meter number cannot be empty")
	}
	if len(meterNumber) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Meter number cannot exceed 50 characters")
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if tariffID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tariff is required")
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MeterNumber:       meterNumber,
		Name:              strings.TrimSpace(name),
		Address:           strings.TrimSpace(address),
		Status:            CustomerStatusActive,
		TariffID:          tariffID,
	}, nil
}

// UpdateProfile changes display data. The meter number is immutable.
func (c *Customer) UpdateProfile(name, address, phone string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(name)
	c.Address = strings.TrimSpace(address)
	c.Phone = strings.TrimSpace(phone)
	c.MarkModified(time.Now())
	return nil
}

// AssignTariff moves the customer to another tariff from the given period on.
// Bills of earlier periods keep the tariff they were priced with.
func (c *Customer) AssignTariff(tariffID uuid.UUID, effectiveFrom BillingPeriod) (*TariffAssignment, error) {
	if tariffID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tariff is required")
	}
	if !effectiveFrom.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid effective period")
	}
	c.TariffID = tariffID
	c.MarkModified(time.Now())
	return NewTariffAssignment(c.ID, tariffID, effectiveFrom), nil
}

// Deactivate stops billing the customer
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError(shared.CodeInvalidState, "Customer is already inactive")
	}
	c.Status = CustomerStatusInactive
	c.MarkModified(time.Now())
	return nil
}

// Activate resumes billing the customer
func (c *Customer) Activate() error {
	if c.Status == CustomerStatusActive {
		return shared.NewDomainError(shared.CodeInvalidState, "Customer is already active")
	}
	c.Status = CustomerStatusActive
	c.MarkModified(time.Now())
	return nil
}

// IsActive returns true if the customer can be billed
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

func validateCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot exceed 200 characters")
	}
	return nil
}
