package database

import (
	"fmt"

	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// customIndexes are the indexes GORM tags cannot express
var customIndexes = []struct {
	name string
	sql  string
}{
	{
		name: "idx_subscriptions_account_active",
		sql:  `CREATE INDEX IF NOT EXISTS idx_subscriptions_account_active ON subscriptions (account_id, created_at DESC) WHERE status = 'active'`,
	},
	{
		name: "idx_subscriptions_account_latest",
		sql:  `CREATE INDEX IF NOT EXISTS idx_subscriptions_account_latest ON subscriptions (account_id, created_at DESC)`,
	},
	{
		name: "idx_api_keys_active_hash",
		sql:  `CREATE INDEX IF NOT EXISTS idx_api_keys_active_hash ON api_keys (key_hash) WHERE is_active`,
	},
}

// Migrate creates the schema for local development databases. In production
// the schema is owned by Supabase migrations and this is skipped.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	err := db.AutoMigrate(
		&model.Account{},
		&model.Subscription{},
		&model.APIKey{},
		&model.EmailAnalysis{},
		&model.ThreatStatDaily{},
		&model.ThreatStatMonthly{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	for _, idx := range customIndexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			logger.Error("Failed to create custom index", zap.String("index", idx.name), zap.Error(err))
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	logger.Info("Database migrations completed successfully",
		zap.Int("custom_indexes", len(customIndexes)))
	return nil
}
