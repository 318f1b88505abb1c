package postgres

import (
	"context"
	"time"

	"roadwatch/internal/domain"

	"github.com/google/uuid"
)

type IncidentRepository interface {
	// CreateOrMerge persists a candidate incident, folding it into an
	// existing nearby, recent, same-type incident when one exists. The
	// returned bool reports a merge.
	CreateOrMerge(ctx context.Context, candidate *domain.Incident) (*domain.Incident, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error)
	ListActive(ctx context.Context, maxAge time.Duration) ([]*domain.Incident, error)
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]*domain.Incident, error)
	// TransitionStatus moves id from one status to another; false when
	// the incident was not in the expected status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.IncidentStatus) (bool, error)
	// IncrementConfirmations atomically bumps the counter and returns
	// the post-increment value with the current status and filer.
	IncrementConfirmations(ctx context.Context, id uuid.UUID) (int, domain.IncidentStatus, string, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type ConfirmationRepository interface {
	// Add inserts one vote; ErrUniqueViolation when the reporter
	// already voted on this incident.
	Add(ctx context.Context, c *domain.Confirmation) error
	CountVotes(ctx context.Context, incidentID uuid.UUID, vote domain.Vote) (int, error)
}

type ReporterRepository interface {
	// Ensure lazily creates the reporter on first interaction.
	Ensure(ctx context.Context, id string) (*domain.Reporter, error)
	RecordReport(ctx context.Context, id string, trustDelta int) error
	RecordAccurate(ctx context.Context, id string, trustDelta int) error
	AdjustTrust(ctx context.Context, id string, delta int) error
	TopByTrust(ctx context.Context, limit int) ([]*domain.Reporter, error)
}

type StatsRepository interface {
	CountByStatus(ctx context.Context, status domain.IncidentStatus) (int64, error)
	ReportsSince(ctx context.Context, minutes int) (int64, error)
}
