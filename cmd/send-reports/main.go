package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wekeepgrowing/mailshield/internal/config"
	"github.com/wekeepgrowing/mailshield/internal/infrastructure/database"
	"github.com/wekeepgrowing/mailshield/internal/infrastructure/mail"
	"github.com/wekeepgrowing/mailshield/internal/usecase"
	pkglogger "github.com/wekeepgrowing/mailshield/pkg/logger"
	"go.uber.org/zap"
)

// send-reports emails last month's threat summary to every account whose
// plan includes reports. It is meant to run from a monthly cron job.
func main() {
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

	repos := database.NewRepositories(db, cfg, logger)

	mailer, err := mail.NewMailer(cfg.Email, logger)
	if err != nil {
		logger.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	access := usecase.NewAccessResolver(repos.Account, repos.Subscription, logger)
	reports := usecase.NewReportService(
		repos.Account,
		access,
		usecase.NewDashboardService(repos.Metrics),
		usecase.NewThreatAggregator(repos.ThreatStats),
		mailer,
		cfg.Service.DashboardURL,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := reports.SendMonthlyReports(ctx)
	if err != nil {
		logger.Fatal("Failed to send monthly reports", zap.Error(err))
	}

	logger.Info("Monthly reports finished",
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
}
