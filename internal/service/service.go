package service

import (
	"context"
	"time"

	"roadwatch/internal/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go

// IncidentStore is the store surface the engine needs. Incidents are
// owned by the store; no service mutates them outside these calls.
type IncidentStore interface {
	CreateOrMerge(ctx context.Context, candidate *domain.Incident) (*domain.Incident, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error)
	ListActive(ctx context.Context, maxAge time.Duration) ([]*domain.Incident, error)
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]*domain.Incident, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.IncidentStatus) (bool, error)
	IncrementConfirmations(ctx context.Context, id uuid.UUID) (int, domain.IncidentStatus, string, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type ConfirmationStore interface {
	Add(ctx context.Context, c *domain.Confirmation) error
	CountVotes(ctx context.Context, incidentID uuid.UUID, vote domain.Vote) (int, error)
}

type ReporterStore interface {
	Ensure(ctx context.Context, id string) (*domain.Reporter, error)
	RecordReport(ctx context.Context, id string, trustDelta int) error
	RecordAccurate(ctx context.Context, id string, trustDelta int) error
	AdjustTrust(ctx context.Context, id string, delta int) error
	TopByTrust(ctx context.Context, limit int) ([]*domain.Reporter, error)
}

type StatsStore interface {
	CountByStatus(ctx context.Context, status domain.IncidentStatus) (int64, error)
	ReportsSince(ctx context.Context, minutes int) (int64, error)
}

type IncidentCache interface {
	GetActive(ctx context.Context) ([]*domain.Incident, error)
	SetActive(ctx context.Context, incidents []*domain.Incident, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Broadcaster is the one-way sink contract; delivery is someone
// else's problem.
type Broadcaster interface {
	Enqueue(ctx context.Context, msg domain.BroadcastMessage) error
}

type ReportService interface {
	Start(ctx context.Context, reporterID string, typ domain.IncidentType) (domain.IntakeResult, error)
	HandleFragment(ctx context.Context, frag domain.ReportFragment) (domain.IntakeResult, error)
	Reset(ctx context.Context, reporterID string) (domain.IntakeResult, error)
}

type VerificationService interface {
	Confirm(ctx context.Context, incidentID uuid.UUID, reporterID string, vote domain.Vote) (domain.ConfirmResult, error)
}

type QueryService interface {
	Nearby(ctx context.Context, req domain.NearbyRequest) ([]*domain.Incident, error)
	Active(ctx context.Context, maxAgeMinutes int) ([]*domain.Incident, error)
}

type AdminService interface {
	List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) error
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Stats(ctx context.Context, minutes int) (*domain.EngineStats, error)
}

type Service struct {
	Report       ReportService
	Verification VerificationService
	Query        QueryService
	Admin        AdminService
}

func NewService(
	report ReportService,
	verification VerificationService,
	query QueryService,
	admin AdminService,
) *Service {
	return &Service{
		Report:       report,
		Verification: verification,
		Query:        query,
		Admin:        admin,
	}
}
