package service

import (
	"context"
	"fmt"
	"log/slog"

	"roadwatch/internal/domain"
	"roadwatch/pkg/e"

	"github.com/google/uuid"
)

type adminService struct {
	incidents IncidentStore
	reporters ReporterStore
	stats     StatsStore
	cache     IncidentCache
	logger    *slog.Logger
}

func NewAdminService(incidents IncidentStore, reporters ReporterStore, stats StatsStore, cache IncidentCache, logger *slog.Logger) AdminService {
	return &adminService{
		incidents: incidents,
		reporters: reporters,
		stats:     stats,
		cache:     cache,
		logger:    logger,
	}
}

func (s *adminService) List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.incidents.List(ctx, page, limit)
}

func (s *adminService) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	return s.incidents.Get(ctx, id)
}

// UpdateStatus forces a status from the admin surface. The transition
// is still compare-and-set against the current status so a concurrent
// vote cannot be silently overwritten.
func (s *adminService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) error {
	const op = "service.Admin.UpdateStatus"

	current, err := s.incidents.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == status {
		return nil
	}

	ok, err := s.incidents.TransitionStatus(ctx, id, current.Status, status)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, e.ErrConflict)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidate failed", slog.Any("error", err))
	}
	s.logger.Info("incident status forced",
		slog.String("incident_id", id.String()),
		slog.String("from", string(current.Status)),
		slog.String("to", string(status)),
	)
	return nil
}

func (s *adminService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	top, err := s.reporters.TopByTrust(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(top))
	for _, r := range top {
		entries = append(entries, domain.LeaderboardEntry{
			ReporterID:    r.ID,
			TrustScore:    r.TrustScore,
			ReportsCount:  r.ReportsCount,
			AccurateCount: r.AccurateCount,
			Badge:         domain.BadgeFor(r.TrustScore, r.ReportsCount),
		})
	}
	return entries, nil
}

func (s *adminService) Stats(ctx context.Context, minutes int) (*domain.EngineStats, error) {
	if minutes < 1 || minutes > 1440 {
		minutes = 60
	}

	active, err := s.stats.CountByStatus(ctx, domain.IncidentPending)
	if err != nil {
		return nil, err
	}
	verified, err := s.stats.CountByStatus(ctx, domain.IncidentVerified)
	if err != nil {
		return nil, err
	}
	reports, err := s.stats.ReportsSince(ctx, minutes)
	if err != nil {
		return nil, err
	}

	return &domain.EngineStats{
		ActiveIncidents:   active + verified,
		VerifiedIncidents: verified,
		ReportsLastWindow: reports,
		Minutes:           minutes,
	}, nil
}
