package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"roadwatch/internal/ai"
	"roadwatch/internal/api"
	"roadwatch/internal/config"
	"roadwatch/internal/intake"
	"roadwatch/internal/redis"
	"roadwatch/internal/service"
	"roadwatch/internal/storage/media"
	"roadwatch/internal/storage/postgres"
	"roadwatch/internal/watch"
	"roadwatch/internal/workers"
	"roadwatch/pkg/logger"
)

type Components struct {
	logger *slog.Logger

	HttpServer *api.Server
	Postgres   *postgres.Postgres
	Redis      *redis.Redis
	BroadcastQ *redis.BroadcastQueue

	Machine       *intake.Machine
	Sweeper       *workers.ExpirySweeper
	Refresher     *workers.CacheRefresher
	Sender        *service.BroadcastSender
	ConfigWatcher *watch.ParserConfigWatcher
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	logger.Info("Initializing Postgres")
	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init postgres", slog.Any("error", err))
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	logger.Info("Initializing Redis")
	redisClient, err := redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	cache := redisClient.Cache
	broadcastQueue := redisClient.Broadcasts

	var mediaStore media.Store
	if cfg.Media.Disabled {
		logger.Warn("Media storage disabled, upload URLs unavailable")
	} else {
		mediaStore, err = media.NewMinioStore(ctx, cfg.Media, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init media store: %w", err)
		}
	}

	parserCfg, err := config.LoadParserConfig(cfg.AI.ConfigPath)
	if err != nil {
		logger.Warn("Parser config overlay rejected, using defaults", slog.Any("error", err))
	}
	holder := ai.NewConfigHolder(parserCfg)

	analyzer, err := ai.New(cfg.AI, holder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init analyzer: %w", err)
	}

	machine := intake.NewMachine(cfg.Engine.PendingTTL, logger)

	reportSvc := service.NewReportService(machine, analyzer, storage.Incident, storage.Reporter, cache, broadcastQueue, cfg.Engine, logger)
	verificationSvc := service.NewVerificationService(storage.Incident, storage.Confirmation, storage.Reporter, cache, cfg.Engine, logger)
	querySvc := service.NewQueryService(storage.Incident, cache, cfg.Engine, logger)
	adminSvc := service.NewAdminService(storage.Incident, storage.Reporter, storage.Stat, cache, logger)

	srv := service.NewService(reportSvc, verificationSvc, querySvc, adminSvc)

	httpServer := api.NewServer(cfg, logger, srv, mediaStore)
	logger.Info("Initialized server")

	return &Components{
		logger:        logger,
		HttpServer:    httpServer,
		Postgres:      storage,
		Redis:         redisClient,
		BroadcastQ:    broadcastQueue,
		Machine:       machine,
		Sweeper:       workers.NewExpirySweeper(storage.Incident, cfg.Engine, logger),
		Refresher:     workers.NewCacheRefresher(storage.Incident, cache, cfg.Engine, logger),
		Sender:        service.NewBroadcastSender(logger, cfg.Engine, broadcastQueue),
		ConfigWatcher: watch.NewParserConfigWatcher(cfg.AI.ConfigPath, holder, logger),
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Component shutdown started")

	c.Postgres.Pool.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
