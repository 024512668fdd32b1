package main

import (
	"context"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const catalogCacheTTL = 5 * time.Minute

func main() {
	log := logging.New("api")

	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.ProductVariant{},
		&model.Cart{},
		&model.CartItem{},
		&model.StockReservation{},
		&model.Order{},
		&model.OrderItem{},
		&model.IdempotencyRecord{},
		&model.InventoryAdjustment{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	variantRepo := infraRepo.NewVariantGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	reservationRepo := infraRepo.NewReservationGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	idemRepo := infraRepo.NewIdempotencyGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)

	catalogCache := cache.NewCatalogRedisCache(rdb, catalogCacheTTL)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, variantRepo)
	reservationUC := usecase.NewReservationUsecase(txManager, reservationRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, idemRepo, orderRepo, orderItemRepo)
	orderUC := usecase.NewOrderUsecase(txManager)
	productUC := usecase.NewProductUsecase(txManager, productRepo, variantRepo, inventoryRepo, catalogCache, logging.New("catalog"))
	sweeperUC := usecase.NewSweeperUsecase(
		reservationUC,
		reservationRepo,
		idemRepo,
		time.Duration(cfg.IdempotencyTTLHours)*time.Hour,
		logging.New("sweeper"),
	)

	//期限切れ予約の回収は別goroutineで回す
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeperUC.Run(ctx, time.Duration(cfg.SweepIntervalSeconds)*time.Second)

	//Handler生成
	e := echo.New()
	e.HideBanner = true

	handler.NewCartHandler(cartUC).RegisterRoutes(e, cfg)
	handler.NewReservationHandler(reservationUC, int64(cfg.ReservationTTLSeconds)).RegisterRoutes(e, cfg)
	handler.NewOrderHandler(checkoutUC, orderUC).RegisterRoutes(e, cfg)
	handler.NewProductHandler(productUC).RegisterRoutes(e, cfg)
	handler.NewWebhookHandler(orderUC).RegisterRoutes(e)

	//Server起動
	addr := ":" + cfg.Port
	if cfg.Port[0] == ':' {
		addr = cfg.Port
	}

	log.Info().Str("addr", addr).Msg("starting api server")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
