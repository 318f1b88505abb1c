package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roadwatch/internal/domain"
	"roadwatch/pkg/e"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConfirmationRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewConfirmationRepo(pool *pgxpool.Pool, logger *slog.Logger) *ConfirmationRepo {
	return &ConfirmationRepo{pool: pool, logger: logger}
}

// Add relies on the (incident_id, reporter_id) primary key: a repeat
// vote comes back as ErrUniqueViolation, which callers report as
// "already voted" rather than a failure.
func (r *ConfirmationRepo) Add(ctx context.Context, c *domain.Confirmation) error {
	const op = "postgres.Confirmation.Add"

	if c == nil || c.ReporterID == "" || c.IncidentID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if c.Vote != domain.VoteConfirm && c.Vote != domain.VoteDeny {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO confirmations (incident_id, reporter_id, vote, created_at)
		VALUES ($1, $2, $3, $4)
	`, c.IncidentID, c.ReporterID, c.Vote, c.CreatedAt)
	if err != nil {
		wrapped := e.WrapError(ctx, op, err)
		if !errorsIsUnique(wrapped) {
			r.logger.Error("db exec failed",
				slog.String("op", op),
				slog.Any("error", err),
				slog.String("incident_id", c.IncidentID.String()),
			)
		}
		return wrapped
	}
	return nil
}

func errorsIsUnique(err error) bool {
	return errors.Is(err, e.ErrUniqueViolation)
}

func (r *ConfirmationRepo) CountVotes(ctx context.Context, incidentID uuid.UUID, vote domain.Vote) (int, error) {
	const op = "postgres.Confirmation.CountVotes"

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM confirmations WHERE incident_id = $1 AND vote = $2
	`, incidentID, vote).Scan(&count)
	if err != nil {
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}
	return count, nil
}
