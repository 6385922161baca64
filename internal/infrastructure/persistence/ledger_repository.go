package persistence

import (
	"context"
	"fmt"

	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository reads transactions and outstanding bills inside one
// read-only transaction, so a bill paid mid-read is seen either as
// outstanding or as collected, never both.
type GormLedgerRepository struct {
	database *Database
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(database *Database) *GormLedgerRepository {
	return &GormLedgerRepository{database: database}
}

func (r *GormLedgerRepository) Snapshot(ctx context.Context, dr billing.DateRange) (*billing.LedgerSnapshot, error) {
	snap := &billing.LedgerSnapshot{}
	err := r.database.ReadSnapshot(ctx, func(tx *gorm.DB) error {
		txns, err := findTransactions(tx, dr)
		if err != nil {
			return fmt.Errorf("failed to read transactions: %w", err)
		}

		var billModels []models.BillModel
		if err := tx.
			Where("status = ? AND created_at >= ? AND created_at < ?", billing.BillStatusUnpaid, dr.From.UTC(), dr.To.UTC()).
			Order("created_at ASC").
			Find(&billModels).Error; err != nil {
			return fmt.Errorf("failed to read outstanding bills: %w", err)
		}

		snap.Transactions = txns
		snap.OutstandingBills = toDomainBills(billModels)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

var _ billing.LedgerRepository = (*GormLedgerRepository)(nil)
