package database

import (
	"github.com/wekeepgrowing/mailshield/internal/adapter/repository"
	"github.com/wekeepgrowing/mailshield/internal/config"
	domainRepo "github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Account       domainRepo.AccountRepository
	Subscription  domainRepo.SubscriptionRepository
	APIKey        domainRepo.APIKeyRepository
	KeyValidator  domainRepo.APIKeyValidator
	Metrics       domainRepo.MetricsRepository
	ThreatStats   domainRepo.ThreatStatsRepository
	EmailAnalysis domainRepo.EmailAnalysisRepository
}

// NewRepositories creates new repository instances with database connection.
// Key validation goes through the Supabase RPC when it is enabled, otherwise
// it reads api_keys directly.
func NewRepositories(db *gorm.DB, cfg *config.Config, logger *zap.Logger) *Repositories {
	apiKeys := repository.NewAPIKeyRepository(db, logger)

	var validator domainRepo.APIKeyValidator = apiKeys
	if cfg.Supabase.UseRPCKeyValidation && cfg.Supabase.ProjectURL != "" {
		validator = repository.NewSupabaseAPIKeyValidator(cfg.Supabase.ProjectURL, cfg.Supabase.ServiceRoleKey, logger)
	}

	return &Repositories{
		Account:       repository.NewAccountRepository(db, logger),
		Subscription:  repository.NewSubscriptionRepository(db, logger),
		APIKey:        apiKeys,
		KeyValidator:  validator,
		Metrics:       repository.NewMetricsRepository(db),
		ThreatStats:   repository.NewThreatStatsRepository(db),
		EmailAnalysis: repository.NewEmailAnalysisRepository(db),
	}
}
