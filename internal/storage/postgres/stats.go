package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"roadwatch/internal/domain"
	"roadwatch/pkg/e"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStatsRepo(pool *pgxpool.Pool, logger *slog.Logger) *StatsRepo {
	return &StatsRepo{pool: pool, logger: logger}
}

func (r *StatsRepo) CountByStatus(ctx context.Context, status domain.IncidentStatus) (int64, error) {
	const op = "postgres.Stats.CountByStatus"

	var cnt int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM incidents WHERE status = $1`, status).Scan(&cnt); err != nil {
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}
	return cnt, nil
}

// ReportsSince counts confirmation rows, which covers both fresh
// incidents and merged duplicates: every submission leaves exactly one.
func (r *StatsRepo) ReportsSince(ctx context.Context, minutes int) (int64, error) {
	const op = "postgres.Stats.ReportsSince"

	if minutes <= 0 || minutes > 1440 {
		return 0, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	// interval parameterized as number * interval '1 minute'
	var cnt int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM confirmations
		WHERE created_at >= NOW() - ($1 * INTERVAL '1 minute')
	`, minutes).Scan(&cnt)
	if err != nil {
		r.logger.Error("db queryrow scan failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.Int("minutes", minutes),
		)
		return 0, e.WrapError(ctx, op, err)
	}
	return cnt, nil
}
