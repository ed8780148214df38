package repository

import (
	"context"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
)

// APIKeyValidator resolves a key hash in one lookup. Unknown, inactive or
// expired keys yield a result with Valid false and no error.
type APIKeyValidator interface {
	ValidateKeyHash(ctx context.Context, keyHash string) (*entity.APIKeyValidation, error)
}

type APIKeyRepository interface {
	APIKeyValidator
	// TouchLastUsed records key usage.
	TouchLastUsed(ctx context.Context, keyID string) error
	UsageByAccountID(ctx context.Context, accountID string) (*entity.APIUsage, error)
}
