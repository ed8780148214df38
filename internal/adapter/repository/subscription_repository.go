package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db, logger: logger}
}

// GetActiveByAccountID returns the authoritative row: the newest active one
func (r *subscriptionRepository) GetActiveByAccountID(ctx context.Context, accountID string) (*model.Subscription, error) {
	return r.latest(ctx, r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, model.SubscriptionStatusActive),
		zap.String("account_id", accountID), zap.String("status", string(model.SubscriptionStatusActive)))
}

func (r *subscriptionRepository) GetLatestByAccountID(ctx context.Context, accountID string) (*model.Subscription, error) {
	return r.latest(ctx, r.db.WithContext(ctx).Where("account_id = ?", accountID),
		zap.String("account_id", accountID))
}

func (r *subscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	return r.latest(ctx, r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID),
		zap.String("stripe_subscription_id", stripeSubscriptionID))
}

func (r *subscriptionRepository) GetByStripeScheduleID(ctx context.Context, scheduleID string) (*model.Subscription, error) {
	return r.latest(ctx, r.db.WithContext(ctx).Where("stripe_schedule_id = ?", scheduleID),
		zap.String("stripe_schedule_id", scheduleID))
}

func (r *subscriptionRepository) latest(_ context.Context, tx *gorm.DB, fields ...zap.Field) (*model.Subscription, error) {
	var sub model.Subscription
	err := tx.Order("created_at DESC").First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// Save writes every column of the row, including nil schedule fields
func (r *subscriptionRepository) Save(ctx context.Context, subscription *model.Subscription) error {
	if err := r.db.WithContext(ctx).Save(subscription).Error; err != nil {
		r.logger.Error("Failed to save subscription",
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("account_id", subscription.AccountID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}
