package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
)

const rateLimitKeyPrefix = "ratelimit:"

// windowStart truncates now to the start of its fixed window
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

func rateLimitKey(key string, start time.Time) string {
	return rateLimitKeyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10)
}

func decide(count int64, limit int, resetAt time.Time) *repository.RateLimitDecision {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &repository.RateLimitDecision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// RedisRateLimiter is a fixed window counter shared by every server instance
type RedisRateLimiter struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisRateLimiter creates a limiter on top of an existing client
func NewRedisRateLimiter(client redis.Cmdable) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, now: time.Now}
}

// Allow increments the counter for the current window. The key expires with
// the window, so stale counters never accumulate.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*repository.RateLimitDecision, error) {
	start := windowStart(l.now(), window)
	redisKey := rateLimitKey(key, start)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count request for %s: %w", key, err)
	}

	return decide(incr.Val(), limit, start.Add(window)), nil
}

// MemoryRateLimiter is the single-instance fallback used when Redis is not
// configured.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	start time.Time
	count int64
}

// NewMemoryRateLimiter creates an in-process limiter
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{windows: make(map[string]memoryWindow), now: time.Now}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (*repository.RateLimitDecision, error) {
	start := windowStart(l.now(), window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if !w.start.Equal(start) {
		w = memoryWindow{start: start}
	}
	w.count++
	l.windows[key] = w

	return decide(w.count, limit, start.Add(window)), nil
}
