package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiKeyRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewAPIKeyRepository creates an api_keys repository backed by Postgres
func NewAPIKeyRepository(db *gorm.DB, logger *zap.Logger) repository.APIKeyRepository {
	return &apiKeyRepository{db: db, logger: logger, now: time.Now}
}

func (r *apiKeyRepository) ValidateKeyHash(ctx context.Context, keyHash string) (*entity.APIKeyValidation, error) {
	var key model.APIKey
	err := r.db.WithContext(ctx).Where("key_hash = ?", keyHash).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entity.APIKeyValidation{Valid: false}, nil
		}
		r.logger.Error("Failed to look up api key", zap.Error(err))
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}

	if !key.Usable(r.now()) {
		return &entity.APIKeyValidation{Valid: false}, nil
	}

	return &entity.APIKeyValidation{
		Valid:       true,
		KeyID:       key.ID.String(),
		AccountID:   key.AccountID.String(),
		Permissions: []string(key.Permissions),
		RateLimit:   key.RateLimit,
	}, nil
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, keyID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", keyID).
		Update("last_used_at", r.now()).Error
	if err != nil {
		return fmt.Errorf("failed to update api key usage: %w", err)
	}
	return nil
}

func (r *apiKeyRepository) UsageByAccountID(ctx context.Context, accountID string) (*entity.APIUsage, error) {
	var usage entity.APIUsage
	err := r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Select("COUNT(*) AS active_keys, COALESCE(SUM(rate_limit), 0) AS total_rate_limit").
		Where("account_id = ? AND is_active = ?", accountID, true).
		Where("expires_at IS NULL OR expires_at > ?", r.now()).
		Scan(&usage).Error
	if err != nil {
		r.logger.Error("Failed to aggregate api key usage",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get api usage: %w", err)
	}
	return &usage, nil
}
