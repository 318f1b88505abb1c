package workers

import (
	"context"
	"log/slog"
	"time"

	"roadwatch/internal/config"
	"roadwatch/internal/service"
)

// CacheRefresher keeps the active-incident snapshot warm so location
// checks read Redis instead of Postgres. The snapshot TTL is three
// refresh intervals; a dead refresher means a stale cache, not a
// frozen one.
type CacheRefresher struct {
	incidents service.IncidentStore
	cache     service.IncidentCache
	interval  time.Duration
	maxAge    time.Duration
	logger    *slog.Logger
}

func NewCacheRefresher(incidents service.IncidentStore, cache service.IncidentCache, engine config.EngineConfig, logger *slog.Logger) *CacheRefresher {
	return &CacheRefresher{
		incidents: incidents,
		cache:     cache,
		interval:  engine.CacheInterval,
		maxAge:    engine.DefaultTTL,
		logger:    logger,
	}
}

func (w *CacheRefresher) Run(ctx context.Context) {
	w.logger.Info("cacheRefresher STARTED", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cacheRefresher STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *CacheRefresher) refresh(ctx context.Context) {
	active, err := w.incidents.ListActive(ctx, w.maxAge)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("active incident load failed", slog.Any("error", err))
		}
		return
	}

	if err := w.cache.SetActive(ctx, active, 3*w.interval); err != nil {
		if ctx.Err() == nil {
			w.logger.Error("cache refresh failed", slog.Any("error", err))
		}
		return
	}

	w.logger.Debug("active incident cache refreshed", slog.Int("count", len(active)))
}
