package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"microcred/internal/api"
	"microcred/internal/api/handlers"
	"microcred/internal/repository"
	"microcred/internal/scoring"
	"microcred/internal/service"
	"microcred/pkg/auth"
	"microcred/pkg/config"
	"microcred/pkg/logger"
	"microcred/pkg/postgres"

	"go.uber.org/zap"
)

// @title MicroCred API
// @version 1.0
// @description Transaction-driven credit scoring and microloan assessment service

// @contact.name API Support
// @contact.email support@microcred.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting MicroCred service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)
	historyRepo := repository.NewScoreHistoryRepository(db, appLogger)
	loanRepo := repository.NewLoanRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	calculator := scoring.NewCalculator(scoring.DefaultConfig())
	scoringService := service.NewScoringService(db, txRepo, historyRepo, calculator, appLogger)
	loanService := service.NewLoanService(db, loanRepo, userRepo, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	txHandler := handlers.NewTransactionHandler(scoringService, appLogger)
	loanHandler := handlers.NewLoanHandler(loanService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, txHandler, loanHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
