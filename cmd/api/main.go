package main

import (
	"agrikonnect/internal/config"
	"agrikonnect/internal/domain/model"
	"agrikonnect/internal/handler"
	"agrikonnect/internal/infra/db"
	"agrikonnect/internal/infra/guestcart"
	infraRepo "agrikonnect/internal/infra/repository"
	"agrikonnect/internal/server"
	"agrikonnect/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envはあれば読む（本番は環境変数だけ）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.GoEnv == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Farmer{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	cartStore := infraRepo.NewCartGormStore(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//ゲストカート（プロセス内メモリ）
	guestStore := guestcart.NewStore()

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret, logger)
	catalogUC := usecase.NewCatalogUsecase(productRepo, inventoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartStore, guestStore, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, userRepo, logger)
	statusUC := usecase.NewStatusUsecase(txManager, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(orderRepo, auditRepo, statusUC, logger)
	adminFarmerUC := usecase.NewAdminFarmerUsecase(userRepo, auditRepo, logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:       handler.NewAuthHandler(authUC),
		Product:    handler.NewProductHandler(catalogUC),
		Cart:       handler.NewCartHandler(cartUC, guestStore),
		Order:      handler.NewOrderHandler(orderUC, statusUC),
		Farmer:     handler.NewFarmerHandler(catalogUC, orderUC, statusUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC, orderUC, statusUC),
		AdminUser:  handler.NewAdminUserHandler(adminFarmerUC),
		Health:     handler.NewHealthHandler(gormDB),
	}

	//Server起動
	e := server.New(cfg, logger, handlers)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := server.Start(e, cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
