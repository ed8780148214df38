package model

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a per-account credential for the public API. Only the SHA-256
// hash of the raw key is stored.
type APIKey struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AccountID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"account_id"`
	Name        string      `gorm:"size:100" json:"name"`
	KeyHash     string      `gorm:"size:64;not null;uniqueIndex" json:"-"`
	KeyPrefix   string      `gorm:"size:16" json:"key_prefix"`
	Permissions StringArray `gorm:"type:text[];not null;default:'{read}'" json:"permissions"`
	RateLimit   int         `gorm:"not null;default:60" json:"rate_limit"`
	IsActive    bool        `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time  `json:"last_used_at,omitempty"`
	CreatedAt   time.Time   `gorm:"default:now()" json:"created_at"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// Usable reports whether the key is active and not expired at now
func (k *APIKey) Usable(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}
