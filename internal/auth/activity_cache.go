package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const activityKeyPrefix = "auth:active:"

// RedisActivityCache memoizes live activity lookups in Redis. An entry may be
// reused for ttl, which is the revocation staleness bound in live mode.
// Redis failures fall through to the source.
type RedisActivityCache struct {
	client *redis.Client
	source ActivityChecker
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisActivityCache wraps source with a Redis cache.
func NewRedisActivityCache(client *redis.Client, source ActivityChecker, ttl time.Duration, logger *zap.Logger) *RedisActivityCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisActivityCache{client: client, source: source, ttl: ttl, logger: logger}
}

// IsActive implements ActivityChecker.
func (c *RedisActivityCache) IsActive(ctx context.Context, operatorID string) (bool, error) {
	key := activityKeyPrefix + operatorID

	if c.client != nil && c.ttl > 0 {
		val, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			return val == "1", nil
		case errors.Is(err, redis.Nil):
		default:
			c.logger.Warn("activity cache read failed", zap.String("operator_id", operatorID), zap.Error(err))
		}
	}

	active, err := c.source.IsActive(ctx, operatorID)
	if err != nil {
		return false, err
	}

	if c.client != nil && c.ttl > 0 {
		flag := "0"
		if active {
			flag = "1"
		}
		if err := c.client.Set(ctx, key, flag, c.ttl).Err(); err != nil {
			c.logger.Warn("activity cache write failed", zap.String("operator_id", operatorID), zap.Error(err))
		}
	}
	return active, nil
}

// Invalidate drops the cached flag so the next lookup hits the store.
func (c *RedisActivityCache) Invalidate(ctx context.Context, operatorID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, activityKeyPrefix+operatorID).Err()
}
