package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares the attempt counter between instances. It counts
// attempts in fixed buckets of one window, keyed
// ratelimit:<scope>:<identifier>:<bucket>, with INCR and EXPIRE sent in a
// single transaction so the key can never outlive its window.
type RedisLimiter struct {
	client redis.Cmdable
	scope  string
	config Config
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, scope string, config Config) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		scope:  scope,
		config: config,
		now:    time.Now,
	}
}

func (l *RedisLimiter) key(identifier string, now time.Time) string {
	bucket := now.UnixMilli() / l.config.Window.Milliseconds()
	return fmt.Sprintf("ratelimit:%s:%s:%d", l.scope, identifier, bucket)
}

func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := l.key(identifier, l.now())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit store: %w", err)
	}

	return incr.Val() <= int64(l.config.MaxAttempts), nil
}
