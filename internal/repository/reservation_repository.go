package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type ReservationRepository interface {
	Create(ctx context.Context, r model.StockReservation) (model.StockReservation, error)
	FindByID(ctx context.Context, id int64) (model.StockReservation, error)

	// 所有者のACTIVE予約を全部返す
	ListActiveByOwner(ctx context.Context, ownerType model.ReservationOwnerType, ownerID string) ([]model.StockReservation, error)

	// ACTIVEのときだけ終端ステータスへ遷移させる。
	// 遷移できたらtrue。既に終端ならfalse（冪等のための条件付き更新）。
	TransitionFromActive(ctx context.Context, id int64, to model.ReservationStatus) (bool, error)

	// 期限切れのACTIVE予約（expires_at <= now）
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.StockReservation, error)
}
