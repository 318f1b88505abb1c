package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"roadwatch/internal/domain"
	"roadwatch/pkg/e"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReporterRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReporterRepo(pool *pgxpool.Pool, logger *slog.Logger) *ReporterRepo {
	return &ReporterRepo{pool: pool, logger: logger}
}

// Ensure creates the reporter on first interaction with the default
// trust score. Reporters are never deleted.
func (r *ReporterRepo) Ensure(ctx context.Context, id string) (*domain.Reporter, error) {
	const op = "postgres.Reporter.Ensure"

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO reporters (id, trust_score, reports_count, accurate_count, language, tier, created_at)
		VALUES ($1, 50, 0, 0, 'en', 'free', $2)
		ON CONFLICT (id) DO NOTHING
	`, id, time.Now().UTC())
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	var rep domain.Reporter
	err = r.pool.QueryRow(ctx, `
		SELECT id, trust_score, reports_count, accurate_count, language, tier, created_at
		FROM reporters WHERE id = $1
	`, id).Scan(&rep.ID, &rep.TrustScore, &rep.ReportsCount, &rep.AccurateCount,
		&rep.Language, &rep.Tier, &rep.CreatedAt)
	if err != nil {
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return &rep, nil
}

// RecordReport bumps the lifetime count and nudges trust upward,
// clamped to [0,100] in SQL so no code path can escape the invariant.
func (r *ReporterRepo) RecordReport(ctx context.Context, id string, trustDelta int) error {
	const op = "postgres.Reporter.RecordReport"

	tag, err := r.pool.Exec(ctx, `
		UPDATE reporters
		SET reports_count = reports_count + 1,
			trust_score = LEAST(100, GREATEST(0, trust_score + $2))
		WHERE id = $1
	`, id, trustDelta)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (r *ReporterRepo) RecordAccurate(ctx context.Context, id string, trustDelta int) error {
	const op = "postgres.Reporter.RecordAccurate"

	tag, err := r.pool.Exec(ctx, `
		UPDATE reporters
		SET accurate_count = accurate_count + 1,
			trust_score = LEAST(100, GREATEST(0, trust_score + $2))
		WHERE id = $1
	`, id, trustDelta)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (r *ReporterRepo) AdjustTrust(ctx context.Context, id string, delta int) error {
	const op = "postgres.Reporter.AdjustTrust"

	tag, err := r.pool.Exec(ctx, `
		UPDATE reporters
		SET trust_score = LEAST(100, GREATEST(0, trust_score + $2))
		WHERE id = $1
	`, id, delta)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (r *ReporterRepo) TopByTrust(ctx context.Context, limit int) ([]*domain.Reporter, error) {
	const op = "postgres.Reporter.TopByTrust"

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, trust_score, reports_count, accurate_count, language, tier, created_at
		FROM reporters
		ORDER BY trust_score DESC, accurate_count DESC, reports_count DESC
		LIMIT $1
	`, limit)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var reporters []*domain.Reporter
	for rows.Next() {
		var rep domain.Reporter
		if err := rows.Scan(&rep.ID, &rep.TrustScore, &rep.ReportsCount, &rep.AccurateCount,
			&rep.Language, &rep.Tier, &rep.CreatedAt); err != nil {
			r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		reporters = append(reporters, &rep)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return reporters, nil
}
