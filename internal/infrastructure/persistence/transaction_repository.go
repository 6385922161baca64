package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository reads payment transactions
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) FindByBillID(ctx context.Context, billID uuid.UUID) (*billing.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).Where("bill_id = ?", billID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormTransactionRepository) FindByDateRange(ctx context.Context, dr billing.DateRange) ([]*billing.Transaction, error) {
	return findTransactions(r.db.WithContext(ctx), dr)
}

func findTransactions(db *gorm.DB, dr billing.DateRange) ([]*billing.Transaction, error) {
	var txnModels []models.TransactionModel
	if err := db.
		Where("created_at >= ? AND created_at < ?", dr.From.UTC(), dr.To.UTC()).
		Order("created_at ASC").
		Order("id ASC").
		Find(&txnModels).Error; err != nil {
		return nil, err
	}

	txns := make([]*billing.Transaction, len(txnModels))
	for i := range txnModels {
		txns[i] = txnModels[i].ToDomain()
	}
	return txns, nil
}

var _ billing.TransactionRepository = (*GormTransactionRepository)(nil)
