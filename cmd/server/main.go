package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/wekeepgrowing/mailshield/internal/adapter/handler/http"
	"github.com/wekeepgrowing/mailshield/internal/config"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"github.com/wekeepgrowing/mailshield/internal/infrastructure/cache"
	"github.com/wekeepgrowing/mailshield/internal/infrastructure/database"
	grpcServer "github.com/wekeepgrowing/mailshield/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/mailshield/internal/infrastructure/http"
	"github.com/wekeepgrowing/mailshield/internal/infrastructure/provider"
	"github.com/wekeepgrowing/mailshield/internal/usecase"
	pkglogger "github.com/wekeepgrowing/mailshield/pkg/logger"
	"github.com/wekeepgrowing/mailshield/pkg/messaging"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	migrate := flag.Bool("migrate", false, "run database migrations even if database.auto_migrate is off")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := pkglogger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger = logger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if *migrate || cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			logger.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, cfg, logger)

	// Redis backs the resync bus and the rate limiter; without it both stay
	// in process
	var (
		bus     messaging.Bus
		limiter repository.RateLimiter
	)
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()
		bus = messaging.NewRedisBus(client)
		limiter = cache.NewRedisRateLimiter(client)
	} else {
		logger.Warn("Redis not configured, using in-process event bus and rate limiter")
		bus = messaging.NewLocalBus()
		limiter = cache.NewMemoryRateLimiter()
	}

	billing, err := provider.NewFactory(cfg, logger).GetProvider("")
	if err != nil {
		logger.Fatal("Failed to create billing provider", zap.Error(err))
	}

	catalog, err := usecase.LoadPlanCatalog(cfg.PlansFile)
	if err != nil {
		logger.Fatal("Failed to load plan catalog", zap.String("path", cfg.PlansFile), zap.Error(err))
	}

	// Use cases
	access := usecase.NewAccessResolver(repos.Account, repos.Subscription, logger)
	reconciler := usecase.NewBillingReconciler(repos.Account, repos.Subscription, billing, catalog, bus, logger)
	dashboard := usecase.NewDashboardService(repos.Metrics)
	threats := usecase.NewThreatAggregator(repos.ThreatStats)
	publicAPI := usecase.NewPublicAPIService(repos.Account, repos.Subscription, repos.APIKey, repos.EmailAnalysis, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := usecase.NewResyncWorker(bus, usecase.ReconcilerResyncer(reconciler), logger)
	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Error("Resync worker stopped", zap.Error(err))
		}
	}()

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, sqlDB, logger)
	httpSrv := httpServer.NewServer(cfg, logger, httpServer.Handlers{
		Billing:      handlers.NewBillingHandler(reconciler, logger),
		Entitlements: handlers.NewEntitlementsHandler(access, logger),
		Dashboard:    handlers.NewDashboardHandler(access, dashboard, threats, logger),
		PublicAPI:    handlers.NewPublicAPIHandler(publicAPI, logger),
		Webhook:      handlers.NewWebhookHandler(reconciler, cfg.Stripe.WebhookSecret, logger),
	}, httpServer.Gateway{
		Validator: repos.KeyValidator,
		Usage:     repos.APIKey,
		Plans:     access,
		Limiter:   limiter,
	})

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	logger.Info("Servers shut down successfully")
}
