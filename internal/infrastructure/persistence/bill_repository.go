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

// GormBillRepository implements BillRepository using GORM.
//
// Lifecycle writes are conditional on the stored status still being UNPAID,
// so two racing payments (or a payment racing a cancellation) cannot both
// succeed even across processes.
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// Create inserts an UNPAID bill. The partial unique index on
// (customer_id, period) for non-cancelled bills turns a racing duplicate
// into DUPLICATE_BILL.
func (r *GormBillRepository) Create(ctx context.Context, bill *billing.Bill) error {
	if err := r.db.WithContext(ctx).Create(models.BillModelFromDomain(bill)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewDomainError(shared.CodeDuplicateBill,
				fmt.Sprintf("A bill for period %s already exists for this customer", bill.Period))
		}
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormBillRepository) FindActiveByCustomerPeriod(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND period = ? AND status <> ?", customerID, period.String(), billing.BillStatusCancelled).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormBillRepository) FindUnpaidByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.Bill, error) {
	var billModels []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, billing.BillStatusUnpaid).
		Order("period DESC").
		Order("created_at DESC").
		Find(&billModels).Error; err != nil {
		return nil, err
	}
	return toDomainBills(billModels), nil
}

func (r *GormBillRepository) FindAll(ctx context.Context, filter billing.BillFilter) ([]*billing.Bill, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BillModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", filter.Period.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var billModels []models.BillModel
	if err := paginate(query, filter.Filter, BillSortFields).Find(&billModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainBills(billModels), total, nil
}

// SavePayment flips the bill to PAID and inserts its transaction in one
// database transaction
func (r *GormBillRepository) SavePayment(ctx context.Context, bill *billing.Bill, txn *billing.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionFromUnpaid(tx, bill, map[string]any{
			"status":     bill.Status,
			"paid_at":    bill.PaidAt,
			"updated_at": bill.UpdatedAt,
			"version":    bill.Version,
		}); err != nil {
			return err
		}
		// the bill row is locked by the update above, so this check cannot race
		var existing int64
		if err := tx.Model(&models.TransactionModel{}).Where("bill_id = ?", bill.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check bill transaction: %w", err)
		}
		if existing > 0 {
			return shared.NewDomainError(shared.CodeInvalidState, "Bill already has a payment transaction")
		}
		if err := tx.Create(models.TransactionModelFromDomain(txn)).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("transaction reference %s already in use: %w", txn.ReferenceNumber, err)
			}
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
}

// SaveCancellation flips the bill to CANCELLED
func (r *GormBillRepository) SaveCancellation(ctx context.Context, bill *billing.Bill) error {
	return transitionFromUnpaid(r.db.WithContext(ctx), bill, map[string]any{
		"status":        bill.Status,
		"cancelled_at":  bill.CancelledAt,
		"cancel_reason": bill.CancelReason,
		"updated_at":    bill.UpdatedAt,
		"version":       bill.Version,
	})
}

func transitionFromUnpaid(tx *gorm.DB, bill *billing.Bill, columns map[string]any) error {
	result := tx.Model(&models.BillModel{}).
		Where("id = ? AND status = ?", bill.ID, billing.BillStatusUnpaid).
		Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update bill status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Bill is no longer unpaid")
	}
	return nil
}

func toDomainBills(billModels []models.BillModel) []*billing.Bill {
	bills := make([]*billing.Bill, len(billModels))
	for i := range billModels {
		bills[i] = billModels[i].ToDomain()
	}
	return bills
}

var _ billing.BillRepository = (*GormBillRepository)(nil)
