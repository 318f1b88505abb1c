// Package intake tracks per-reporter conversational state from "type
// selected" to "location captured". State is reporter-scoped: every
// method is atomic per reporter and no cross-reporter coordination
// exists or is needed.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"roadwatch/internal/domain"
	"roadwatch/pkg/e"
)

type Machine struct {
	mu      sync.RWMutex
	pending map[string]*domain.PendingReport
	ttl     time.Duration
	logger  *slog.Logger
}

func NewMachine(ttl time.Duration, logger *slog.Logger) *Machine {
	return &Machine{
		pending: make(map[string]*domain.PendingReport),
		ttl:     ttl,
		logger:  logger,
	}
}

// Snapshot returns a copy of the reporter's pending report, if any.
func (m *Machine) Snapshot(reporterID string) (domain.PendingReport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pending[reporterID]
	if !ok {
		return domain.PendingReport{}, false
	}
	return *p, true
}

// Begin starts a flow from an explicit type selection. A new report
// never silently discards an unfinished one; the reporter must reset
// first.
func (m *Machine) Begin(reporterID string, typ domain.IncidentType) error {
	const op = "intake.Begin"

	if !domain.ValidIncidentType(typ) {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[reporterID]; exists {
		return fmt.Errorf("%s: %w", op, e.ErrFlowInProgress)
	}

	m.pending[reporterID] = &domain.PendingReport{
		ReporterID: reporterID,
		Type:       typ,
		Severity:   3,
		Step:       domain.StepAwaitingDescription,
		CreatedAt:  time.Now().UTC(),
	}
	return nil
}

// BeginParsed installs a flow from an AI classification, skipping
// straight to location capture since the description was inferred.
// Returns false when the reporter already has a pending entry (or
// started one while the analysis was in flight): the caller must
// discard the stale result.
func (m *Machine) BeginParsed(reporterID string, parsed *domain.ParsedIncident, mediaRef string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[reporterID]; exists {
		return false
	}

	m.pending[reporterID] = &domain.PendingReport{
		ReporterID:  reporterID,
		Type:        parsed.Type,
		Description: parsed.Description,
		Severity:    parsed.Severity,
		MediaRef:    mediaRef,
		Step:        domain.StepAwaitingLocation,
		CreatedAt:   time.Now().UTC(),
	}
	return true
}

// SetDescription records a text message inside an active flow and
// advances to location capture. A second text while awaiting location
// replaces the description; the reporter is clarifying, not starting
// over.
func (m *Machine) SetDescription(reporterID, text string) (domain.PendingReport, error) {
	const op = "intake.SetDescription"

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[reporterID]
	if !ok {
		return domain.PendingReport{}, fmt.Errorf("%s: %w", op, e.ErrNoPendingReport)
	}

	p.Description = text
	if p.Step == domain.StepAwaitingDescription {
		p.Step = domain.StepAwaitingLocation
	}
	return *p, nil
}

// Finalize consumes the pending entry once a location arrives. The
// entry is only removed when it is ready: a location received while
// the description is still missing keeps the state so the caller can
// re-prompt instead of persisting a partial record.
func (m *Machine) Finalize(reporterID string) (domain.PendingReport, error) {
	const op = "intake.Finalize"

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[reporterID]
	if !ok {
		return domain.PendingReport{}, fmt.Errorf("%s: %w", op, e.ErrNoPendingReport)
	}
	if p.Step != domain.StepAwaitingLocation {
		return *p, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	p.Step = domain.StepComplete
	delete(m.pending, reporterID)
	return *p, nil
}

// Restore reinstalls a consumed entry after a failed persistence so
// the reporter's flow is held instead of silently lost. A flow the
// reporter started in the meantime wins.
func (m *Machine) Restore(p domain.PendingReport) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[p.ReporterID]; exists {
		return false
	}
	p.Step = domain.StepAwaitingLocation
	m.pending[p.ReporterID] = &p
	return true
}

// Reset discards the reporter's pending entry unconditionally.
func (m *Machine) Reset(reporterID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.pending[reporterID]
	delete(m.pending, reporterID)
	return ok
}

// Run sweeps abandoned entries past their TTL, the same way the rate
// limiter janitors idle visitors.
func (m *Machine) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Machine) sweep() {
	cutoff := time.Now().UTC().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.pending {
		if p.CreatedAt.Before(cutoff) {
			delete(m.pending, id)
			m.logger.Debug("abandoned pending report swept", slog.String("reporter_id", id))
		}
	}
}
