package usecase

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/domain/model"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	"go.uber.org/zap"
)

// AccessResolver derives feature entitlements from an account's active
// subscription.
type AccessResolver struct {
	accounts      repository.AccountRepository
	subscriptions repository.SubscriptionRepository
	policy        entity.MissingSubscriptionPolicy
	logger        *zap.Logger
}

func NewAccessResolver(
	accounts repository.AccountRepository,
	subscriptions repository.SubscriptionRepository,
	logger *zap.Logger,
) *AccessResolver {
	return &AccessResolver{
		accounts:      accounts,
		subscriptions: subscriptions,
		policy:        entity.NoSubscriptionPolicy,
		logger:        logger,
	}
}

// WithPolicy returns a copy of the resolver applying policy to accounts
// without an active subscription.
func (r *AccessResolver) WithPolicy(policy entity.MissingSubscriptionPolicy) *AccessResolver {
	cp := *r
	cp.policy = policy
	return &cp
}

// Resolve returns the entitlements of the account owned by ownerID
func (r *AccessResolver) Resolve(ctx context.Context, ownerID string) (*entity.Entitlements, error) {
	_, ent, err := r.ResolveOwner(ctx, ownerID)
	return ent, err
}

// ResolveOwner returns the account owned by ownerID with its entitlements
func (r *AccessResolver) ResolveOwner(ctx context.Context, ownerID string) (*model.Account, *entity.Entitlements, error) {
	account, err := r.accounts.GetByOwnerID(ctx, ownerID)
	if err != nil {
		r.logger.Error("Failed to look up account by owner",
			zap.String("owner_id", ownerID),
			zap.Error(err))
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, nil, domainErrors.ErrAccountNotFound
	}
	ent, err := r.forAccount(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, ent, nil
}

// ResolveForAccount returns the entitlements of an account by id
func (r *AccessResolver) ResolveForAccount(ctx context.Context, accountID string) (*entity.Entitlements, error) {
	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		r.logger.Error("Failed to look up account",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, domainErrors.ErrAccountNotFound
	}
	return r.forAccount(ctx, account)
}

func (r *AccessResolver) forAccount(ctx context.Context, account *model.Account) (*entity.Entitlements, error) {
	sub, err := r.subscriptions.GetActiveByAccountID(ctx, account.ID.String())
	if err != nil {
		r.logger.Error("Failed to look up active subscription",
			zap.String("account_id", account.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	if sub == nil {
		r.logger.Debug("No active subscription, applying missing subscription policy",
			zap.String("account_id", account.ID.String()),
			zap.Int("policy", int(r.policy)))
		return r.policy.Entitlements(), nil
	}
	return entity.EntitlementsForPlan(sub.PlanName), nil
}
