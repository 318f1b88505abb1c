package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"roadwatch/internal/config"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"
	"roadwatch/pkg/geo"
)

type queryService struct {
	incidents IncidentStore
	cache     IncidentCache
	engine    config.EngineConfig
	logger    *slog.Logger
}

func NewQueryService(incidents IncidentStore, cache IncidentCache, engine config.EngineConfig, logger *slog.Logger) QueryService {
	return &queryService{incidents: incidents, cache: cache, engine: engine, logger: logger}
}

func (s *queryService) Nearby(ctx context.Context, req domain.NearbyRequest) ([]*domain.Incident, error) {
	const op = "service.Query.Nearby"

	if !geo.ValidCoordinates(req.Lat, req.Lng) {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}
	radius := req.RadiusKM
	if radius <= 0 {
		radius = s.engine.DefaultRadiusKM
	}

	cached, err := s.cache.GetActive(ctx)
	if err != nil {
		s.logger.Warn("cache read failed", slog.Any("error", err))
	}
	if cached != nil {
		nearby := make([]*domain.Incident, 0, len(cached))
		for _, inc := range cached {
			if geo.HaversineKM(req.Lat, req.Lng, inc.Lat, inc.Lng) <= radius {
				nearby = append(nearby, inc)
			}
		}
		return nearby, nil
	}

	return s.incidents.FindNearby(ctx, req.Lat, req.Lng, radius)
}

func (s *queryService) Active(ctx context.Context, maxAgeMinutes int) ([]*domain.Incident, error) {
	if maxAgeMinutes <= 0 {
		maxAgeMinutes = int(s.engine.DefaultTTL.Minutes())
	}
	return s.incidents.ListActive(ctx, time.Duration(maxAgeMinutes)*time.Minute)
}
