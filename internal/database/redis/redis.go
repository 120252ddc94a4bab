package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"lifequery/internal/config"
)

// Connect creates a Redis client and verifies the connection with a ping.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}
