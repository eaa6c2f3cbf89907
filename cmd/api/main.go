package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classbank/internal/config"
	"classbank/internal/database"
	"classbank/internal/handlers"
	"classbank/internal/middleware"
	"classbank/internal/repositories"
	"classbank/internal/services"
	"classbank/internal/storage"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	blobStore, err := storage.NewFileBlobStore(cfg.Storage.StatementsDir)
	if err != nil {
		log.Fatalf("Failed to initialize statement storage: %v", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	classRepo := repositories.NewClassRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	storeRepo := repositories.NewStoreRepository(db)
	scheduledRepo := repositories.NewScheduledOperationRepository(db)
	statementRepo := repositories.NewStatementRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Services
	metrics := services.NewPrometheusMetrics()
	auditLogger := services.NewAuditLogger()
	ledgerService := services.NewLedgerService(accountRepo, transactionRepo, classRepo, userRepo, auditRepo, logger)
	fundingService := services.NewFundingService(accountRepo, scheduledRepo, classRepo, auditRepo, metrics, logger, cfg.Cron.BatchSize)
	storeService := services.NewStoreService(storeRepo, accountRepo, classRepo, auditRepo, metrics, logger)
	statementService := services.NewStatementService(accountRepo, transactionRepo, statementRepo, userRepo, classRepo, auditRepo, blobStore, metrics, logger)

	// Handlers
	healthHandler := handlers.NewHealthCheckHandler(db)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, auditLogger)
	fundingHandler := handlers.NewFundingHandler(fundingService, auditLogger)
	storeHandler := handlers.NewStoreHandler(storeService, auditLogger)
	statementHandler := handlers.NewStatementHandler(statementService, auditLogger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Scheduler-triggered endpoints, secured by the cron secret
	cron := e.Group("/cron", middleware.RequireCronSecret(cfg.Cron.Secret))
	cron.POST("/funding/run", fundingHandler.RunDueOperations)
	cron.POST("/statements/run", statementHandler.RunMonthlyGeneration)

	// Authenticated API
	api := e.Group("/api/v1", middleware.RequireAuth(cfg.JWT.PublicKey, cfg.JWT.Issuer))

	api.GET("/students/:studentId/accounts", ledgerHandler.GetStudentAccounts)
	api.POST("/students/:studentId/accounts", ledgerHandler.OpenStudentAccounts, middleware.RequireTeacher())
	api.GET("/accounts/:accountId", ledgerHandler.GetAccount)
	api.GET("/accounts/:accountId/transactions", ledgerHandler.GetAccountTransactions)
	api.POST("/ledger/deposit", ledgerHandler.Deposit, middleware.RequireTeacher())
	api.POST("/ledger/withdraw", ledgerHandler.Withdraw, middleware.RequireTeacher())
	api.POST("/ledger/transfer", ledgerHandler.Transfer)

	api.POST("/funding", fundingHandler.ApplyFunding, middleware.RequireTeacher())
	api.GET("/funding/operations", fundingHandler.ListOperations, middleware.RequireTeacher())
	api.DELETE("/funding/operations/:operationId", fundingHandler.CancelOperation, middleware.RequireTeacher())

	api.GET("/store/items", storeHandler.ListItems)
	api.POST("/store/items", storeHandler.CreateItem, middleware.RequireTeacher())
	api.GET("/store/items/:itemId", storeHandler.GetItem)
	api.PUT("/store/items/:itemId", storeHandler.UpdateItem, middleware.RequireTeacher())
	api.DELETE("/store/items/:itemId", storeHandler.DeleteItem, middleware.RequireTeacher())
	api.POST("/store/purchase", storeHandler.Purchase)
	api.GET("/students/:studentId/purchases", storeHandler.ListStudentPurchases)

	api.GET("/accounts/:accountId/statement", statementHandler.DownloadStatement)
	api.GET("/students/:studentId/statements", statementHandler.ListStatements)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
