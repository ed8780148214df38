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

type accountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB, logger *zap.Logger) repository.AccountRepository {
	return &accountRepository{db: db, logger: logger}
}

func (r *accountRepository) GetByID(ctx context.Context, accountID string) (*model.Account, error) {
	return r.first(ctx, "id = ?", accountID)
}

func (r *accountRepository) GetByOwnerID(ctx context.Context, ownerID string) (*model.Account, error) {
	return r.first(ctx, "owner_id = ?", ownerID)
}

func (r *accountRepository) first(ctx context.Context, query string, arg string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where(query, arg).Order("created_at ASC").First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get account",
			zap.String("query", query),
			zap.String("value", arg),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// SetStripeCustomerID links the account to a processor customer
func (r *accountRepository) SetStripeCustomerID(ctx context.Context, accountID, customerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"stripe_customer_id": customerID,
			"updated_at":         gorm.Expr("now()"),
		})
	if result.Error != nil {
		r.logger.Error("Failed to set stripe customer id",
			zap.String("account_id", accountID),
			zap.String("customer_id", customerID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account not found: %s", accountID)
	}
	return nil
}

func (r *accountRepository) List(ctx context.Context, offset, limit int) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
