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

// GormReadingRepository implements ReadingRepository using GORM
type GormReadingRepository struct {
	db *gorm.DB
}

// NewGormReadingRepository creates a new GormReadingRepository
func NewGormReadingRepository(db *gorm.DB) *GormReadingRepository {
	return &GormReadingRepository{db: db}
}

func (r *GormReadingRepository) Create(ctx context.Context, reading *billing.Reading) error {
	if err := r.db.WithContext(ctx).Create(models.ReadingModelFromDomain(reading)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists,
				fmt.Sprintf("A reading for period %s is already recorded", reading.Period))
		}
		return fmt.Errorf("failed to create reading: %w", err)
	}
	return nil
}

func (r *GormReadingRepository) FindByCustomerPeriod(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.Reading, error) {
	var model models.ReadingModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND period = ?", customerID, period.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormReadingRepository) FindLatestBefore(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.Reading, error) {
	var model models.ReadingModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND period < ?", customerID, period.String()).
		Order("period DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ billing.ReadingRepository = (*GormReadingRepository)(nil)
