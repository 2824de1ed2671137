// Package kv provides the shared Redis client used for refresh tokens and rate limiting.
package kv

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rentstack/rentstack/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the shared *redis.Client.
var Module = fx.Provide(NewClient)

// NewClient opens the Redis connection and registers lifecycle hooks.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.RedisAddr),
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing redis connection")
			return client.Close()
		},
	})

	return client, nil
}
