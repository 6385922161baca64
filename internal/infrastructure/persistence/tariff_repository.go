package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTariffRepository implements TariffRepository using GORM
type GormTariffRepository struct {
	db *gorm.DB
}

// NewGormTariffRepository creates a new GormTariffRepository
func NewGormTariffRepository(db *gorm.DB) *GormTariffRepository {
	return &GormTariffRepository{db: db}
}

func (r *GormTariffRepository) Create(ctx context.Context, tariff *billing.Tariff) error {
	if err := r.db.WithContext(ctx).Create(models.TariffModelFromDomain(tariff)).Error; err != nil {
		return fmt.Errorf("failed to create tariff: %w", err)
	}
	return nil
}

// Update overwrites the tariff rates. Bills keep their own snapshot.
func (r *GormTariffRepository) Update(ctx context.Context, tariff *billing.Tariff) error {
	return updateVersioned(ctx, r.db, models.TariffModelFromDomain(tariff), tariff.ID, tariff.Version)
}

func (r *GormTariffRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Tariff, error) {
	var model models.TariffModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormTariffRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Tariff, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TariffModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tariffModels []models.TariffModel
	if err := paginate(query, filter, TariffSortFields).Find(&tariffModels).Error; err != nil {
		return nil, 0, err
	}

	tariffs := make([]*billing.Tariff, len(tariffModels))
	for i := range tariffModels {
		tariffs[i] = tariffModels[i].ToDomain()
	}
	return tariffs, total, nil
}

// GormTariffAssignmentRepository stores per-customer tariff history
type GormTariffAssignmentRepository struct {
	db *gorm.DB
}

// NewGormTariffAssignmentRepository creates a new GormTariffAssignmentRepository
func NewGormTariffAssignmentRepository(db *gorm.DB) *GormTariffAssignmentRepository {
	return &GormTariffAssignmentRepository{db: db}
}

func (r *GormTariffAssignmentRepository) Create(ctx context.Context, assignment *billing.TariffAssignment) error {
	if err := r.db.WithContext(ctx).Create(models.TariffAssignmentModelFromDomain(assignment)).Error; err != nil {
		return fmt.Errorf("failed to record tariff assignment: %w", err)
	}
	return nil
}

// FindEffective returns the assignment in force for period. When several
// share the same EffectiveFrom the most recently recorded wins.
func (r *GormTariffAssignmentRepository) FindEffective(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.TariffAssignment, error) {
	var model models.TariffAssignmentModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND effective_from <= ?", customerID, period.String()).
		Order("effective_from DESC").
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormTariffAssignmentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.TariffAssignment, error) {
	var assignmentModels []models.TariffAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("effective_from ASC").
		Order("created_at ASC").
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}

	assignments := make([]*billing.TariffAssignment, len(assignmentModels))
	for i := range assignmentModels {
		assignments[i] = assignmentModels[i].ToDomain()
	}
	return assignments, nil
}

var (
	_ billing.TariffRepository           = (*GormTariffRepository)(nil)
	_ billing.TariffAssignmentRepository = (*GormTariffAssignmentRepository)(nil)
)
