package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding window counter on a Redis sorted set. Each allowed
// request adds one member scored by its timestamp; rejected requests are
// removed again so hammering a limited key does not extend the lockout.
type Limiter struct {
	Client redis.Cmdable
	Prefix string
	Now    func() time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// Reset is when the oldest counted request leaves the window.
	Reset time.Time
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow counts a request for key. A nil client or a non-positive limit
// allows everything.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, limit int) (Decision, error) {
	now := l.now()
	if l.Client == nil || limit <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: limit, Reset: now.Add(window)}, nil
	}

	redisKey := l.Prefix + key
	member := uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.PExpire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Reset: now.Add(window)}, err
	}

	reset := now.Add(window)
	if zs := oldest.Val(); len(zs) > 0 {
		reset = time.Unix(0, int64(zs[0].Score)).Add(window)
	}

	current := int(count.Val())
	if current > limit {
		if err := l.Client.ZRem(ctx, redisKey, member).Err(); err != nil {
			return Decision{Reset: reset}, err
		}
		return Decision{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	return Decision{Allowed: true, Remaining: limit - current, Reset: reset}, nil
}
