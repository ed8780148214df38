package repository

import (
	"context"
	"time"
)

// RateLimitDecision is the outcome of counting one request against a window
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts requests per key in fixed windows
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitDecision, error)
}
