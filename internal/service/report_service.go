package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"roadwatch/internal/ai"
	"roadwatch/internal/config"
	"roadwatch/internal/domain"
	"roadwatch/internal/intake"
	"roadwatch/pkg/e"
	"roadwatch/pkg/geo"
)

type reportService struct {
	machine   *intake.Machine
	analyzer  ai.Analyzer
	incidents IncidentStore
	reporters ReporterStore
	cache     IncidentCache
	broadcast Broadcaster
	engine    config.EngineConfig
	logger    *slog.Logger
}

func NewReportService(
	machine *intake.Machine,
	analyzer ai.Analyzer,
	incidents IncidentStore,
	reporters ReporterStore,
	cache IncidentCache,
	broadcast Broadcaster,
	engine config.EngineConfig,
	logger *slog.Logger,
) ReportService {
	return &reportService{
		machine:   machine,
		analyzer:  analyzer,
		incidents: incidents,
		reporters: reporters,
		cache:     cache,
		broadcast: broadcast,
		engine:    engine,
		logger:    logger,
	}
}

func (s *reportService) Start(ctx context.Context, reporterID string, typ domain.IncidentType) (domain.IntakeResult, error) {
	const op = "service.Report.Start"

	if reporterID == "" {
		return domain.IntakeResult{}, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if _, err := s.reporters.Ensure(ctx, reporterID); err != nil {
		return domain.IntakeResult{}, err
	}
	if err := s.machine.Begin(reporterID, typ); err != nil {
		return domain.IntakeResult{}, err
	}

	s.logger.Info("report flow started",
		slog.String("reporter_id", reporterID),
		slog.String("type", string(typ)),
	)
	return domain.IntakeResult{Outcome: domain.OutcomePromptDescription}, nil
}

func (s *reportService) Reset(ctx context.Context, reporterID string) (domain.IntakeResult, error) {
	s.machine.Reset(reporterID)
	return domain.IntakeResult{Outcome: domain.OutcomeReset}, nil
}

func (s *reportService) HandleFragment(ctx context.Context, frag domain.ReportFragment) (domain.IntakeResult, error) {
	const op = "service.Report.HandleFragment"

	if frag.ReporterID == "" {
		return domain.IntakeResult{}, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	switch frag.Kind {
	case domain.FragmentText:
		return s.handleText(ctx, frag)
	case domain.FragmentVoice, domain.FragmentPhoto:
		return s.handleMedia(ctx, frag)
	case domain.FragmentLocation:
		return s.handleLocation(ctx, frag)
	default:
		return domain.IntakeResult{}, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
}

func (s *reportService) handleText(ctx context.Context, frag domain.ReportFragment) (domain.IntakeResult, error) {
	if _, active := s.machine.Snapshot(frag.ReporterID); active {
		p, err := s.machine.SetDescription(frag.ReporterID, frag.Text)
		if err != nil {
			// the flow was reset between snapshot and update
			if errors.Is(err, e.ErrNoPendingReport) {
				return domain.IntakeResult{Outcome: domain.OutcomeNotUnderstood}, nil
			}
			return domain.IntakeResult{}, err
		}
		if p.Step == domain.StepAwaitingLocation {
			return domain.IntakeResult{Outcome: domain.OutcomePromptLocation}, nil
		}
		return domain.IntakeResult{Outcome: domain.OutcomePromptDescription}, nil
	}

	// no active flow: classify the free text. The analyzer never
	// blocks another reporter; this reporter waits for it.
	parsed, err := s.analyzer.AnalyzeText(ctx, frag.Text)
	if err != nil {
		// the guarded analyzer already fell back; anything left is fatal to this message only
		s.logger.Error("text analysis failed", slog.Any("error", err))
		return domain.IntakeResult{Outcome: domain.OutcomeNotUnderstood}, nil
	}
	if parsed == nil || (parsed.Type == domain.TypeOther && !parsed.IsEmergency) {
		// unrelated chatter, not a report
		return domain.IntakeResult{Outcome: domain.OutcomeNotUnderstood}, nil
	}

	if _, err := s.reporters.Ensure(ctx, frag.ReporterID); err != nil {
		return domain.IntakeResult{}, err
	}
	if !s.machine.BeginParsed(frag.ReporterID, parsed, frag.MediaRef) {
		// a flow appeared while the analysis was in flight: the result is stale
		s.logger.Debug("stale classification discarded", slog.String("reporter_id", frag.ReporterID))
		return domain.IntakeResult{Outcome: s.promptForPending(frag.ReporterID)}, nil
	}

	return domain.IntakeResult{Outcome: domain.OutcomePromptLocation}, nil
}

func (s *reportService) handleMedia(ctx context.Context, frag domain.ReportFragment) (domain.IntakeResult, error) {
	var (
		parsed *domain.ParsedIncident
		err    error
	)
	if frag.Kind == domain.FragmentVoice {
		parsed, err = s.analyzer.AnalyzeVoice(ctx, frag.Payload, frag.MimeType)
	} else {
		parsed, err = s.analyzer.AnalyzePhoto(ctx, frag.Payload, frag.MimeType)
	}
	if err != nil || parsed == nil {
		// no binary fallback exists: "could not analyze"
		return domain.IntakeResult{Outcome: domain.OutcomeNotUnderstood}, nil
	}

	if _, err := s.reporters.Ensure(ctx, frag.ReporterID); err != nil {
		return domain.IntakeResult{}, err
	}
	if !s.machine.BeginParsed(frag.ReporterID, parsed, frag.MediaRef) {
		return domain.IntakeResult{Outcome: s.promptForPending(frag.ReporterID)}, nil
	}
	return domain.IntakeResult{Outcome: domain.OutcomePromptLocation}, nil
}

// promptForPending picks the next prompt from the flow that won the
// race against an in-flight analysis. The winner may still be waiting
// for its description; asking for a location then would skip a step.
func (s *reportService) promptForPending(reporterID string) domain.IntakeOutcome {
	if p, ok := s.machine.Snapshot(reporterID); ok && p.Step == domain.StepAwaitingDescription {
		return domain.OutcomePromptDescription
	}
	return domain.OutcomePromptLocation
}

func (s *reportService) handleLocation(ctx context.Context, frag domain.ReportFragment) (domain.IntakeResult, error) {
	const op = "service.Report.handleLocation"

	if !geo.ValidCoordinates(frag.Lat, frag.Lng) {
		return domain.IntakeResult{}, fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}

	if _, active := s.machine.Snapshot(frag.ReporterID); !active {
		// no flow in progress: an unsolicited location is an ambient
		// nearby query, never a malformed incident
		nearby, err := s.nearbyFromCacheOrStore(ctx, frag.Lat, frag.Lng, s.engine.DefaultRadiusKM)
		if err != nil {
			return domain.IntakeResult{}, err
		}
		return domain.IntakeResult{Outcome: domain.OutcomeAmbientQuery, Nearby: nearby}, nil
	}

	pending, err := s.machine.Finalize(frag.ReporterID)
	if err != nil {
		if errors.Is(err, e.ErrInvalidInput) {
			// description still missing: hold state and re-prompt
			return domain.IntakeResult{Outcome: domain.OutcomePromptDescription}, nil
		}
		if errors.Is(err, e.ErrNoPendingReport) {
			return domain.IntakeResult{Outcome: domain.OutcomeNotUnderstood}, nil
		}
		return domain.IntakeResult{}, err
	}

	candidate := &domain.Incident{
		Type:        pending.Type,
		Description: pending.Description,
		Lat:         frag.Lat,
		Lng:         frag.Lng,
		Address:     frag.Address,
		Severity:    pending.Severity,
		MediaRef:    pending.MediaRef,
		ReportedBy:  frag.ReporterID,
	}

	incident, merged, err := s.incidents.CreateOrMerge(ctx, candidate)
	if err != nil {
		// nothing was committed; put the flow back so the reporter can retry
		s.machine.Restore(pending)
		return domain.IntakeResult{}, err
	}

	if err := s.reporters.RecordReport(ctx, frag.ReporterID, s.engine.TrustReportGain); err != nil {
		s.logger.Error("trust reward failed", slog.Any("error", err), slog.String("reporter_id", frag.ReporterID))
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidate failed", slog.Any("error", err))
	}

	// fire-and-forget relative to persistence
	text, critical := FormatBroadcast(incident, merged)
	if err := s.broadcast.Enqueue(ctx, domain.BroadcastMessage{Text: text, Critical: critical}); err != nil {
		s.logger.Error("broadcast enqueue failed", slog.Any("error", err))
	}

	outcome := domain.OutcomePersisted
	if merged {
		outcome = domain.OutcomeMerged
	}
	s.logger.Info("incident persisted",
		slog.String("incident_id", incident.ID.String()),
		slog.String("type", string(incident.Type)),
		slog.Bool("merged", merged),
	)
	return domain.IntakeResult{Outcome: outcome, Incident: incident}, nil
}

func (s *reportService) nearbyFromCacheOrStore(ctx context.Context, lat, lng, radiusKm float64) ([]*domain.Incident, error) {
	cached, err := s.cache.GetActive(ctx)
	if err != nil {
		s.logger.Warn("cache read failed", slog.Any("error", err))
	}
	if cached != nil {
		nearby := make([]*domain.Incident, 0, len(cached))
		for _, inc := range cached {
			if geo.HaversineKM(lat, lng, inc.Lat, inc.Lng) <= radiusKm {
				nearby = append(nearby, inc)
			}
		}
		return nearby, nil
	}
	return s.incidents.FindNearby(ctx, lat, lng, radiusKm)
}
