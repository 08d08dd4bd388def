// campusvoice/visitors/redis.go
package visitors

import (
	"context"
	"fmt"
	"log/slog"

	"campusvoice/config"
	"campusvoice/utils"

	goredis "github.com/redis/go-redis/v9"
)

// RedisCounter keeps the unique visitor set in a Redis set.
type RedisCounter struct {
	client *goredis.Client
	key    string
	logger *slog.Logger
}

// NewRedisCounter connects to Redis and checks the connection.
func NewRedisCounter(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisCounter, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	key := cfg.Key
	if key == "" {
		key = config.Default().Redis.Key
	}
	return &RedisCounter{client: client, key: key, logger: logger.With("component", "visitors")}, nil
}

// RecordVisitor adds deviceID to the set and returns its size in one round trip.
func (c *RedisCounter) RecordVisitor(ctx context.Context, deviceID string) (int64, error) {
	pipe := c.client.TxPipeline()
	added := pipe.SAdd(ctx, c.key, deviceID)
	total := pipe.SCard(ctx, c.key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record visitor: %w", err)
	}
	if added.Val() > 0 {
		c.logger.Debug("New visitor", "device", utils.HashDevice(deviceID), "total", total.Val())
	}
	return total.Val(), nil
}

func (c *RedisCounter) Close() error { return c.client.Close() }
