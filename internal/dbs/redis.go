package dbs

import (
	"context"
	"fmt"

	"jeeforces/configs"
	"jeeforces/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis opens the process-wide Redis client. The caller owns it and must CloseRedis it.
func InitRedis(ctx context.Context, cfg *configs.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return client, nil
}

func CloseRedis(client *redis.Client) {
	if client != nil {
		_ = client.Close()
	}
}
