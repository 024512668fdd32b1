package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type IdempotencyGormRepository struct {
	db *gorm.DB
}

// DI
func NewIdempotencyGormRepository(db *gorm.DB) *IdempotencyGormRepository {
	return &IdempotencyGormRepository{db: db}
}

func (r *IdempotencyGormRepository) FindByKey(ctx context.Context, key string) (model.IdempotencyRecord, bool, error) {
	var rec model.IdempotencyRecord
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return model.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

// キーのユニーク制約で同時作成の片方をErrConflictに落とす
func (r *IdempotencyGormRepository) Create(ctx context.Context, key string) (model.IdempotencyRecord, error) {
	rec := model.IdempotencyRecord{Key: key}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.IdempotencyRecord{}, repo.ErrConflict
		}
		return model.IdempotencyRecord{}, err
	}
	return rec, nil
}

func (r *IdempotencyGormRepository) Bind(ctx context.Context, key string, orderID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.IdempotencyRecord{}).
		Where("key = ? AND order_id IS NULL", key).
		Update("order_id", orderID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

func (r *IdempotencyGormRepository) DeleteUnboundBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("order_id IS NULL AND created_at < ?", cutoff).
		Delete(&model.IdempotencyRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
