package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Create persists a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *billing.Customer) error {
	if err := r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(customer)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists,
				fmt.Sprintf("Meter number %s is already registered", customer.MeterNumber))
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// Update saves a modified customer with an optimistic version check
func (r *GormCustomerRepository) Update(ctx context.Context, customer *billing.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return updateVersioned(ctx, r.db, model, customer.ID, customer.Version)
}

// SaveTariffAssignment updates the customer's current tariff and appends the
// assignments to its history atomically
func (r *GormCustomerRepository) SaveTariffAssignment(ctx context.Context, customer *billing.Customer, assignments ...*billing.TariffAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(ctx, tx, models.CustomerModelFromDomain(customer), customer.ID, customer.Version); err != nil {
			return err
		}
		for _, a := range assignments {
			if err := tx.Create(models.TariffAssignmentModelFromDomain(a)).Error; err != nil {
				return fmt.Errorf("failed to record tariff assignment: %w", err)
			}
		}
		return nil
	})
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMeterNumber finds a customer by its unique meter number
func (r *GormCustomerRepository) FindByMeterNumber(ctx context.Context, meterNumber string) (*billing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("meter_number = ?", strings.TrimSpace(meterNumber)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds customers matching the filter and returns the total count
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter billing.CustomerFilter) ([]*billing.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(meter_number) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customerModels []models.CustomerModel
	if err := paginate(query, filter.Filter, CustomerSortFields).Find(&customerModels).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]*billing.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = customerModels[i].ToDomain()
	}
	return customers, total, nil
}

var _ billing.CustomerRepository = (*GormCustomerRepository)(nil)
