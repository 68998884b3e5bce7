package redisrate

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vixomaix/reel-to-recipe-api/internal/infrastructure/logger"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

// TierLimits defines per-window request ceilings for a subscription tier.
// Only the per-minute limit gates admission; the hour and day windows are
// recorded for usage statistics.
type TierLimits struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
	MaxBatchSize      int
}

var tiers = map[string]TierLimits{
	"free":       {RequestsPerMinute: 10, RequestsPerHour: 100, RequestsPerDay: 500, MaxBatchSize: 5},
	"basic":      {RequestsPerMinute: 30, RequestsPerHour: 500, RequestsPerDay: 2000, MaxBatchSize: 20},
	"pro":        {RequestsPerMinute: 100, RequestsPerHour: 2000, RequestsPerDay: 10000, MaxBatchSize: 50},
	"enterprise": {RequestsPerMinute: 500, RequestsPerHour: 10000, RequestsPerDay: 100000, MaxBatchSize: 100},
}

// Limits returns the ceilings for a tier, falling back to free for unknown
// tiers.
func Limits(tier string) TierLimits {
	if t, ok := tiers[tier]; ok {
		return t
	}
	return tiers["free"]
}

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
	dayWindow    = 24 * time.Hour
)

// Limiter is a sliding-window rate limiter over Redis sorted sets: one
// timestamped member per admitted check, pruned by score. The prune, count,
// insert and expire steps run in a single transactional pipeline so
// concurrent checks for the same user neither under- nor over-count.
//
// When Redis is unreachable the limiter fails open and admits everything.
// That is a deliberate availability-over-strictness choice: a degraded
// counting store removes rate limiting entirely.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func windowKey(userID, window string) string {
	return "rate_limit:" + userID + ":" + window
}

func (l *Limiter) Check(ctx context.Context, userID, tier string) port.Decision {
	limits := Limits(tier)
	now := time.Now().Unix()

	var minuteCount *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		minuteCount = l.track(ctx, pipe, userID, "minute", minuteWindow, now)
		l.track(ctx, pipe, userID, "hour", hourWindow, now)
		l.track(ctx, pipe, userID, "day", dayWindow, now)
		return nil
	})
	if err != nil {
		logger.Warn.Printf("rate limiter unavailable, failing open for user %s: %v", userID, err)
		return port.Decision{Allowed: true, Limit: limits.RequestsPerMinute, Remaining: 0}
	}

	countAfterInsert := int(minuteCount.Val()) + 1
	limit := limits.RequestsPerMinute
	return port.Decision{
		Allowed:   countAfterInsert <= limit,
		Limit:     limit,
		Remaining: max(0, limit-countAfterInsert),
	}
}

// track prunes expired entries, counts the survivors, records the current
// request and refreshes the key's TTL. The returned count excludes the
// entry just inserted.
func (l *Limiter) track(ctx context.Context, pipe redis.Pipeliner, userID, window string, width time.Duration, now int64) *redis.IntCmd {
	key := windowKey(userID, window)
	cutoff := strconv.FormatInt(now-int64(width.Seconds()), 10)

	pipe.ZRemRangeByScore(ctx, key, "0", cutoff)
	count := pipe.ZCard(ctx, key)
	// Member must be unique per request; the score carries the timestamp.
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
	pipe.Expire(ctx, key, width)
	return count
}

func (l *Limiter) Usage(ctx context.Context, userID string) (port.Usage, error) {
	now := time.Now().Unix()

	var minute, hour, day *redis.IntCmd
	_, err := l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		minute = pipe.ZCount(ctx, windowKey(userID, "minute"), strconv.FormatInt(now-60, 10), strconv.FormatInt(now, 10))
		hour = pipe.ZCount(ctx, windowKey(userID, "hour"), strconv.FormatInt(now-3600, 10), strconv.FormatInt(now, 10))
		day = pipe.ZCount(ctx, windowKey(userID, "day"), strconv.FormatInt(now-86400, 10), strconv.FormatInt(now, 10))
		return nil
	})
	if err != nil {
		return port.Usage{}, err
	}

	return port.Usage{
		RequestsLastMinute: minute.Val(),
		RequestsLastHour:   hour.Val(),
		RequestsLastDay:    day.Val(),
	}, nil
}

func (l *Limiter) BatchLimit(tier string) int {
	return Limits(tier).MaxBatchSize
}

var _ port.RateLimiter = (*Limiter)(nil)
