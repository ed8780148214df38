package repository

import (
	"context"

	"github.com/wekeepgrowing/mailshield/internal/domain/model"
)

// AccountRepository returns nil, nil when no account matches.
type AccountRepository interface {
	GetByID(ctx context.Context, accountID string) (*model.Account, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*model.Account, error)
	SetStripeCustomerID(ctx context.Context, accountID, customerID string) error
	List(ctx context.Context, offset, limit int) ([]*model.Account, error)
}
