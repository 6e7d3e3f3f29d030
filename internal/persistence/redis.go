package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-repair/internal/config"
)

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis wraps the go-redis client. A Redis built without an address has a
// nil Client and reports errRedisNotConfigured from every call.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Debug("REDIS_ADDR not provided; events stay in-process")
		return &Redis{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Enabled reports whether a client was configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// Publish sends payload on a pub/sub channel.
func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if !r.Enabled() {
		return errRedisNotConfigured
	}
	return r.Client.Publish(ctx, channel, payload).Err()
}

// SetNX sets key only when absent.
func (r *Redis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if !r.Enabled() {
		return false, errRedisNotConfigured
	}
	return r.Client.SetNX(ctx, key, value, ttl).Result()
}

// Get returns the string value at key; a missing key yields redis.Nil.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if !r.Enabled() {
		return "", errRedisNotConfigured
	}
	return r.Client.Get(ctx, key).Result()
}

// Del removes keys.
func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if !r.Enabled() {
		return errRedisNotConfigured
	}
	return r.Client.Del(ctx, keys...).Err()
}
