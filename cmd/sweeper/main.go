package main

import (
	"context"
	"flag"
	"time"

	"app/internal/config"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

// cron運用向けのワンショット実行。
// --dry-runはDBを変更せず件数だけ出す。
func main() {
	dryRun := flag.Bool("dry-run", false, "count expired reservations without releasing them")
	flag.Parse()

	log := logging.New("sweeper")

	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	txManager := infraRepo.NewTxManagerGorm(gormDB)
	reservationRepo := infraRepo.NewReservationGormRepository(gormDB)
	idemRepo := infraRepo.NewIdempotencyGormRepository(gormDB)

	reservationUC := usecase.NewReservationUsecase(txManager, reservationRepo)
	sweeperUC := usecase.NewSweeperUsecase(
		reservationUC,
		reservationRepo,
		idemRepo,
		time.Duration(cfg.IdempotencyTTLHours)*time.Hour,
		log,
	)

	result, err := sweeperUC.Sweep(context.Background(), *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("sweep failed")
	}

	log.Info().
		Int("found", result.Found).
		Int("released", result.Released).
		Int("failed", result.Failed).
		Int64("purged_keys", result.PurgedKeys).
		Bool("dry_run", *dryRun).
		Msg("done")
}
