// Package workers holds the background loops: the expiry sweeper and
// the active-incident cache refresher. Each loop owns one goroutine
// and stops on context cancel.
package workers

import (
	"context"
	"log/slog"
	"time"

	"roadwatch/internal/config"
	"roadwatch/internal/service"
)

// ExpirySweeper flips stale incidents to expired on a fixed interval.
// The store-side update is set-based and idempotent, so overlapping
// runs and restarts are harmless.
type ExpirySweeper struct {
	incidents service.IncidentStore
	interval  time.Duration
	logger    *slog.Logger
}

func NewExpirySweeper(incidents service.IncidentStore, engine config.EngineConfig, logger *slog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		incidents: incidents,
		interval:  engine.SweepInterval,
		logger:    logger,
	}
}

func (w *ExpirySweeper) Run(ctx context.Context) {
	w.logger.Info("expirySweeper STARTED", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// one sweep at startup so a restart never leaves stale rows
	// waiting a full interval
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expirySweeper STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	expired, err := w.incidents.ExpireStale(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("expiry sweep failed", slog.Any("error", err))
		}
		return
	}
	if expired > 0 {
		w.logger.Info("incidents expired", slog.Int64("count", expired))
	}
}
