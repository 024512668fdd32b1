package usecase

import (
	"context"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

const sweepBatchSize = 500

type SweeperUsecase struct {
	reservationUC *ReservationUsecase
	reservations  repo.ReservationRepository
	idem          repo.IdempotencyRepository

	//未束縛の冪等キーを掃除するまでの猶予
	idemTTL time.Duration

	log zerolog.Logger
}

func NewSweeperUsecase(
	reservationUC *ReservationUsecase,
	reservations repo.ReservationRepository,
	idem repo.IdempotencyRepository,
	idemTTL time.Duration,
	log zerolog.Logger,
) *SweeperUsecase {
	return &SweeperUsecase{
		reservationUC: reservationUC,
		reservations:  reservations,
		idem:          idem,
		idemTTL:       idemTTL,
		log:           log,
	}
}

type SweepResult struct {
	Found      int
	Released   int
	Failed     int
	PurgedKeys int64
}

// Sweep は期限切れのACTIVE予約を解放して在庫を戻す。
// 終端ステータスは監査用にEXPIRED。
// 1件の失敗はログに残して残りを続行する（Checkout/Reserveと違い部分失敗を許容）。
func (u *SweeperUsecase) Sweep(ctx context.Context, dryRun bool) (SweepResult, error) {
	var result SweepResult

	expired, err := u.reservations.ListExpired(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return result, err
	}
	result.Found = len(expired)

	if dryRun {
		u.log.Info().Int("found", result.Found).Msg("sweep dry-run")
		return result, nil
	}

	for _, res := range expired {
		released, err := u.reservationUC.releaseOne(ctx, res.ID, model.ReservationStatusExpired)
		if err != nil {
			result.Failed++
			u.log.Error().Err(err).
				Int64("reservation_id", res.ID).
				Int64("product_id", res.ProductID).
				Msg("failed to release expired reservation")
			continue
		}
		if released {
			result.Released++
		}
	}

	//古い未束縛の冪等キーも掃除する（束縛済みは消さない）
	purged, err := u.idem.DeleteUnboundBefore(ctx, time.Now().Add(-u.idemTTL))
	if err != nil {
		u.log.Error().Err(err).Msg("failed to purge unbound idempotency records")
	} else {
		result.PurgedKeys = purged
	}

	u.log.Info().
		Int("found", result.Found).
		Int("released", result.Released).
		Int("failed", result.Failed).
		Int64("purged_keys", result.PurgedKeys).
		Msg("sweep finished")

	return result, nil
}

// Run は停止されるまで一定間隔でSweepを回す。
func (u *SweeperUsecase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := u.Sweep(ctx, false); err != nil {
				u.log.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}
