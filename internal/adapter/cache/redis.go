package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient подключается к Redis по REDIS_URL и проверяет соединение.
func NewRedisClient(cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	start := time.Now()

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// допускаем и просто host:port
		opt = &redis.Options{Addr: cfg.Redis.URL}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established",
		"addr", opt.Addr,
		"db", opt.DB,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return client, nil
}
