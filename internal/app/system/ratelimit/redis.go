package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const windowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter shares the fixed-window counter across instances.
// Redis errors fail open and are logged.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	prefix string
	limit  int
	window time.Duration
	log    *zap.Logger
}

// NewRedis returns a limiter storing counters under prefix in client.
func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(windowScript),
		prefix: prefix,
		limit:  limit,
		window: window,
		log:    log,
	}
}

// Allow reports whether the attempt is allowed and counts it.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil || key == "" || l.limit <= 0 {
		return true
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, ttl, l.limit).Int64()
	if err != nil {
		if l.log != nil {
			l.log.Warn("rate limit check failed; allowing", zap.String("key", key), zap.Error(err))
		}
		return true
	}
	return allowed == 1
}

// Reset removes the counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, l.prefix+key).Err()
}
