package security

import (
	"context"
	"fmt"
	"time"

	"heather-backend/pkg/logger"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// AnalysisQuota limits document analyses per user with a Redis sliding
// window. Without Redis it allows every request.
type AnalysisQuota struct {
	client goredis.Scripter
	limit  int
	window time.Duration
	now    func() time.Time
}

// KEYS[1] = quota key
// ARGV[1] = max count, ARGV[2] = window (ms), ARGV[3] = now (ms), ARGV[4] = member
// Returns 1 if allowed, 0 if the window is full.
const slidingWindowScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
    return 0
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`

var slidingWindow = goredis.NewScript(slidingWindowScript)

// NewAnalysisQuota defaults to 20 analyses per 24 hours. client may be nil.
func NewAnalysisQuota(client goredis.Scripter, perDay int) *AnalysisQuota {
	if perDay <= 0 {
		perDay = 20
	}
	if c, ok := client.(*goredis.Client); ok && c == nil {
		client = nil
	}
	return &AnalysisQuota{
		client: client,
		limit:  perDay,
		window: 24 * time.Hour,
		now:    time.Now,
	}
}

// Allow records one analysis for userID if the window has room. Redis
// failures are logged and fail open.
func (q *AnalysisQuota) Allow(ctx context.Context, userID string) (bool, error) {
	if q.client == nil {
		return true, nil
	}

	now := q.now().UnixMilli()
	key := "quota:analysis:user:" + userID
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindow.Run(ctx, q.client, []string{key}, q.limit, q.window.Milliseconds(), now, member).Int()
	if err != nil {
		logger.Get().Warn("analysis quota check failed, allowing request", "error", err)
		return true, nil
	}
	return res == 1, nil
}
