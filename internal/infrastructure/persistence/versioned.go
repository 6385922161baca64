package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// updateVersioned writes every column of model if the stored row still has
// version-1. Domain mutations bump the version exactly once, so a mismatch
// means another writer got there first.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, version int) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("version = ?", version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrentModification
}
