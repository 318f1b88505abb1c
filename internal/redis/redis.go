package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"roadwatch/internal/config"

	"github.com/redis/go-redis/v9"
)

// Keys owned by this package. Everything the engine keeps in redis
// lives under these two.
const (
	activeIncidentsKey = "incidents:active"
	broadcastQueueKey  = "broadcasts:queue"
)

// Redis bundles the client with the two structures built on it: the
// active-incident cache and the broadcast queue. Callers take the
// structure they need instead of wiring keys themselves.
type Redis struct {
	Client     *redis.Client
	Cache      *IncidentCache
	Broadcasts *BroadcastQueue
}

func NewRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping Redis", slog.String("error", err.Error()))
		if err := rdb.Close(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("Connected to Redis successfully")

	return bundle(rdb), nil
}

func bundle(client *redis.Client) *Redis {
	return &Redis{
		Client:     client,
		Cache:      NewIncidentCache(client, activeIncidentsKey),
		Broadcasts: NewBroadcastQueue(client, broadcastQueueKey),
	}
}

func (r *Redis) Close() error {
	return r.Client.Close()
}
