package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// API key permissions
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// APIKeyValidation is the result of a single key lookup
type APIKeyValidation struct {
	Valid       bool     `json:"valid"`
	KeyID       string   `json:"key_id,omitempty"`
	AccountID   string   `json:"account_id"`
	Permissions []string `json:"permissions"`
	RateLimit   int      `json:"rate_limit"`
}

// HasPermission reports whether granted satisfies required.
// admin satisfies anything and write also satisfies read.
func HasPermission(granted []string, required string) bool {
	for _, p := range granted {
		switch {
		case p == PermissionAdmin:
			return true
		case p == required:
			return true
		case p == PermissionWrite && required == PermissionRead:
			return true
		}
	}
	return false
}

// APIUsage summarizes an account's keys
type APIUsage struct {
	ActiveKeys     int64 `json:"active_keys"`
	TotalRateLimit int64 `json:"total_rate_limit"`
}

// HashAPIKey returns the hex SHA-256 digest stored in api_keys.key_hash
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
