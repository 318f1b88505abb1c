package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"roadwatch/internal/config"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"

	"github.com/google/uuid"
)

type verificationService struct {
	incidents     IncidentStore
	confirmations ConfirmationStore
	reporters     ReporterStore
	cache         IncidentCache
	engine        config.EngineConfig
	logger        *slog.Logger
}

func NewVerificationService(
	incidents IncidentStore,
	confirmations ConfirmationStore,
	reporters ReporterStore,
	cache IncidentCache,
	engine config.EngineConfig,
	logger *slog.Logger,
) VerificationService {
	return &verificationService{
		incidents:     incidents,
		confirmations: confirmations,
		reporters:     reporters,
		cache:         cache,
		engine:        engine,
		logger:        logger,
	}
}

// Confirm records one reporter's vote on an incident. A repeat vote is
// not an error to the caller; it simply does not count again.
func (s *verificationService) Confirm(ctx context.Context, incidentID uuid.UUID, reporterID string, vote domain.Vote) (domain.ConfirmResult, error) {
	const op = "service.Verification.Confirm"

	if reporterID == "" || (vote != domain.VoteConfirm && vote != domain.VoteDeny) {
		return domain.ConfirmResult{}, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	incident, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return domain.ConfirmResult{}, err
	}
	if incident.Status == domain.IncidentExpired || incident.Status == domain.IncidentFalse {
		return domain.ConfirmResult{}, fmt.Errorf("%s: %w", op, e.ErrConflict)
	}
	if incident.ReportedBy == reporterID {
		// the filer's confirmation row was written at creation
		return domain.ConfirmResult{
			Accepted:      false,
			Confirmations: incident.Confirmations,
			Status:        incident.Status,
		}, nil
	}

	if _, err := s.reporters.Ensure(ctx, reporterID); err != nil {
		return domain.ConfirmResult{}, err
	}

	err = s.confirmations.Add(ctx, &domain.Confirmation{
		IncidentID: incidentID,
		ReporterID: reporterID,
		Vote:       vote,
	})
	if err != nil {
		if errors.Is(err, e.ErrUniqueViolation) {
			return domain.ConfirmResult{
				Accepted:      false,
				Confirmations: incident.Confirmations,
				Status:        incident.Status,
			}, nil
		}
		return domain.ConfirmResult{}, err
	}

	switch vote {
	case domain.VoteConfirm:
		return s.applyConfirm(ctx, incidentID)
	default:
		return s.applyDeny(ctx, incident)
	}
}

func (s *verificationService) applyConfirm(ctx context.Context, incidentID uuid.UUID) (domain.ConfirmResult, error) {
	count, status, reportedBy, err := s.incidents.IncrementConfirmations(ctx, incidentID)
	if err != nil {
		return domain.ConfirmResult{}, err
	}

	if status == domain.IncidentPending && count >= s.engine.VerifyThreshold {
		promoted, err := s.incidents.TransitionStatus(ctx, incidentID, domain.IncidentPending, domain.IncidentVerified)
		if err != nil {
			return domain.ConfirmResult{}, err
		}
		if promoted {
			status = domain.IncidentVerified
			// accuracy reward goes to the original filer
			if err := s.reporters.RecordAccurate(ctx, reportedBy, s.engine.TrustVerifyGain); err != nil {
				s.logger.Error("accuracy reward failed", slog.Any("error", err), slog.String("reporter_id", reportedBy))
			}
			if err := s.cache.Invalidate(ctx); err != nil {
				s.logger.Warn("cache invalidate failed", slog.Any("error", err))
			}
			s.logger.Info("incident verified",
				slog.String("incident_id", incidentID.String()),
				slog.Int("confirmations", count),
			)
		}
	}

	return domain.ConfirmResult{Accepted: true, Confirmations: count, Status: status}, nil
}

func (s *verificationService) applyDeny(ctx context.Context, incident *domain.Incident) (domain.ConfirmResult, error) {
	denials, err := s.confirmations.CountVotes(ctx, incident.ID, domain.VoteDeny)
	if err != nil {
		return domain.ConfirmResult{}, err
	}

	// denials only kill a report that never reached verification
	if denials >= s.engine.FalseThreshold &&
		incident.Status == domain.IncidentPending &&
		incident.Confirmations < s.engine.VerifyThreshold {

		demoted, err := s.incidents.TransitionStatus(ctx, incident.ID, domain.IncidentPending, domain.IncidentFalse)
		if err != nil {
			return domain.ConfirmResult{}, err
		}
		if demoted {
			if err := s.reporters.AdjustTrust(ctx, incident.ReportedBy, -s.engine.TrustDenyLoss); err != nil {
				s.logger.Error("trust penalty failed", slog.Any("error", err), slog.String("reporter_id", incident.ReportedBy))
			}
			if err := s.cache.Invalidate(ctx); err != nil {
				s.logger.Warn("cache invalidate failed", slog.Any("error", err))
			}
			s.logger.Info("incident marked false",
				slog.String("incident_id", incident.ID.String()),
				slog.Int("denials", denials),
			)
			return domain.ConfirmResult{Accepted: true, Confirmations: incident.Confirmations, Status: domain.IncidentFalse}, nil
		}
	}

	return domain.ConfirmResult{Accepted: true, Confirmations: incident.Confirmations, Status: incident.Status}, nil
}
