package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"heather-backend/internal/delivery/http/response"
	"heather-backend/internal/domain"
	"heather-backend/pkg/logger"
	"heather-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyPrefix namespaces counters in Redis, e.g. "rl:ip:".
	KeyPrefix string
	KeyFunc   func(*gin.Context) string
	// FailClosed rejects requests when Redis errors instead of falling back
	// to the in-process counter.
	FailClosed bool
}

// IPRateLimitConfig limits every request by client IP.
func IPRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "rl:ip:",
		KeyFunc:   func(c *gin.Context) string { return c.ClientIP() },
	}
}

// UserRateLimitConfig limits authenticated requests by user id, falling back
// to the client IP.
func UserRateLimitConfig(prefix string, limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: prefix,
		KeyFunc: func(c *gin.Context) string {
			if id := c.GetString(string(domain.KeyUserID)); id != "" {
				return id
			}
			return c.ClientIP()
		},
	}
}

// KEYS[1] = counter key, ARGV[1] = window (seconds)
// Returns {count, ttl}.
var fixedWindow = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('TTL', KEYS[1])}
`)

type memoryEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests in Redis when a client is given and in
// process otherwise.
type RateLimiter struct {
	client goredis.Scripter
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewRateLimiter(client goredis.Scripter) *RateLimiter {
	if c, ok := client.(*goredis.Client); ok && c == nil {
		client = nil
	}
	return &RateLimiter{client: client, now: time.Now, entries: make(map[string]*memoryEntry)}
}

// Middleware enforces cfg. Rejections answer 429 with Retry-After.
func (l *RateLimiter) Middleware(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := cfg.KeyPrefix + cfg.KeyFunc(c)

		count, resetAt, err := l.hit(c.Request.Context(), key, cfg)
		if err != nil {
			if cfg.FailClosed {
				logger.Get().Error("rate limiter unavailable", "key_prefix", cfg.KeyPrefix, "error", err)
				response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
				c.Abort()
				return
			}
			count, resetAt = l.hitMemory(key, cfg)
		}

		remaining := cfg.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))

		if count > cfg.Limit {
			retryAfter := int(resetAt.Sub(l.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			security.DefaultLogger().LogRateLimitTriggered(c.Request.Context(),
				c.ClientIP(), c.GetHeader("User-Agent"), c.GetString(RequestIDKey), c.FullPath())
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) hit(ctx context.Context, key string, cfg RateLimitConfig) (int, time.Time, error) {
	if l.client == nil {
		count, resetAt := l.hitMemory(key, cfg)
		return count, resetAt, nil
	}

	res, err := fixedWindow.Run(ctx, l.client, []string{key}, int(cfg.Window.Seconds())).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) < 2 {
		return 0, time.Time{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	return int(res[0]), l.now().Add(time.Duration(res[1]) * time.Second), nil
}

func (l *RateLimiter) hitMemory(key string, cfg RateLimitConfig) (int, time.Time) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &memoryEntry{resetAt: now.Add(cfg.Window)}
		l.entries[key] = e
	}
	e.count++
	return e.count, e.resetAt
}

// Sweep drops expired in-process counters. Run it periodically.
func (l *RateLimiter) Sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, k)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx ends.
func (l *RateLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
