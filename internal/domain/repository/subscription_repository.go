package repository

import (
	"context"

	"github.com/wekeepgrowing/mailshield/internal/domain/model"
)

// SubscriptionRepository returns nil, nil when no row matches.
type SubscriptionRepository interface {
	// GetActiveByAccountID returns the most recently created active row.
	GetActiveByAccountID(ctx context.Context, accountID string) (*model.Subscription, error)
	// GetLatestByAccountID returns the most recently created row in any status.
	GetLatestByAccountID(ctx context.Context, accountID string) (*model.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	GetByStripeScheduleID(ctx context.Context, scheduleID string) (*model.Subscription, error)
	Save(ctx context.Context, subscription *model.Subscription) error
}
