package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type ReservationGormRepository struct {
	db *gorm.DB
}

// DI
func NewReservationGormRepository(db *gorm.DB) *ReservationGormRepository {
	return &ReservationGormRepository{db: db}
}

func (r *ReservationGormRepository) Create(ctx context.Context, res model.StockReservation) (model.StockReservation, error) {
	if err := r.db.WithContext(ctx).Create(&res).Error; err != nil {
		return model.StockReservation{}, err
	}
	return res, nil
}

func (r *ReservationGormRepository) FindByID(ctx context.Context, id int64) (model.StockReservation, error) {
	var res model.StockReservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StockReservation{}, repo.ErrNotFound
	}
	if err != nil {
		return model.StockReservation{}, err
	}
	return res, nil
}

func (r *ReservationGormRepository) ListActiveByOwner(ctx context.Context, ownerType model.ReservationOwnerType, ownerID string) ([]model.StockReservation, error) {
	var items []model.StockReservation
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND status = ?", ownerType, ownerID, model.ReservationStatusActive).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ACTIVEのときだけ遷移させる条件付きUPDATE。
// RowsAffected=0なら誰かが先に終端へ落としている（冪等no-op用）。
func (r *ReservationGormRepository) TransitionFromActive(ctx context.Context, id int64, to model.ReservationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.StockReservation{}).
		Where("id = ? AND status = ?", id, model.ReservationStatusActive).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ReservationGormRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.StockReservation, error) {
	var items []model.StockReservation
	tx := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", model.ReservationStatusActive, now).
		Order("expires_at asc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
