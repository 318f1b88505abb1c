package intake_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"roadwatch/internal/domain"
	"roadwatch/internal/intake"
	"roadwatch/pkg/e"
)

func newMachine() *intake.Machine {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
	return intake.NewMachine(30*time.Minute, logger)
}

func TestMachine_FullFlow(t *testing.T) {
	t.Parallel()

	m := newMachine()

	if err := m.Begin("rep-1", domain.TypeAccident); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	p, ok := m.Snapshot("rep-1")
	if !ok || p.Step != domain.StepAwaitingDescription {
		t.Fatalf("after Begin: %+v ok=%v", p, ok)
	}

	p, err := m.SetDescription("rep-1", "two cars at the roundabout")
	if err != nil {
		t.Fatalf("SetDescription: %v", err)
	}
	if p.Step != domain.StepAwaitingLocation {
		t.Fatalf("step = %q, want awaiting_location", p.Step)
	}

	final, err := m.Finalize("rep-1")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if final.Description != "two cars at the roundabout" || final.Type != domain.TypeAccident {
		t.Fatalf("finalized report mismatch: %+v", final)
	}

	if _, ok := m.Snapshot("rep-1"); ok {
		t.Fatal("entry must be removed after finalize")
	}
}

func TestMachine_SecondBeginRejected(t *testing.T) {
	t.Parallel()

	m := newMachine()
	if err := m.Begin("rep-1", domain.TypeHazard); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	err := m.Begin("rep-1", domain.TypeFlooding)
	if !errors.Is(err, e.ErrFlowInProgress) {
		t.Fatalf("err = %v, want ErrFlowInProgress", err)
	}

	// the original flow is untouched
	p, _ := m.Snapshot("rep-1")
	if p.Type != domain.TypeHazard {
		t.Fatalf("type = %q, want hazard", p.Type)
	}
}

func TestMachine_InvalidType(t *testing.T) {
	t.Parallel()

	m := newMachine()
	if err := m.Begin("rep-1", domain.IncidentType("meteor")); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestMachine_FinalizeWithoutDescriptionHoldsState(t *testing.T) {
	t.Parallel()

	m := newMachine()
	if err := m.Begin("rep-1", domain.TypeRoadDamage); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// location arrives before any description: hold and re-prompt
	if _, err := m.Finalize("rep-1"); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, ok := m.Snapshot("rep-1"); !ok {
		t.Fatal("pending entry must survive a premature location")
	}
}

func TestMachine_NoPendingIsAmbient(t *testing.T) {
	t.Parallel()

	m := newMachine()
	if _, err := m.SetDescription("ghost", "hello"); !errors.Is(err, e.ErrNoPendingReport) {
		t.Fatalf("SetDescription err = %v, want ErrNoPendingReport", err)
	}
	if _, err := m.Finalize("ghost"); !errors.Is(err, e.ErrNoPendingReport) {
		t.Fatalf("Finalize err = %v, want ErrNoPendingReport", err)
	}
}

func TestMachine_BeginParsedSkipsDescription(t *testing.T) {
	t.Parallel()

	m := newMachine()
	parsed := &domain.ParsedIncident{
		Type:        domain.TypeTrafficJam,
		Severity:    3,
		Description: "gros embouteillage",
		Confidence:  0.6,
	}

	if !m.BeginParsed("rep-1", parsed, "") {
		t.Fatal("BeginParsed must install when idle")
	}
	p, _ := m.Snapshot("rep-1")
	if p.Step != domain.StepAwaitingLocation {
		t.Fatalf("step = %q, want awaiting_location", p.Step)
	}

	// a stale AI result arriving after a flow started is discarded
	if m.BeginParsed("rep-1", parsed, "") {
		t.Fatal("BeginParsed must refuse when a flow exists")
	}
}

func TestMachine_ResetDiscardsUnconditionally(t *testing.T) {
	t.Parallel()

	m := newMachine()
	_ = m.Begin("rep-1", domain.TypeProtest)
	if !m.Reset("rep-1") {
		t.Fatal("Reset must report a discarded entry")
	}
	if m.Reset("rep-1") {
		t.Fatal("second Reset must be a no-op")
	}
	if _, ok := m.Snapshot("rep-1"); ok {
		t.Fatal("entry must be gone after reset")
	}
}

func TestMachine_ReportersAreIsolated(t *testing.T) {
	t.Parallel()

	m := newMachine()

	var wg sync.WaitGroup
	reporters := []string{"a", "b", "c", "d", "e"}
	for _, id := range reporters {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Begin(id, domain.TypeAccident); err != nil {
				t.Errorf("Begin(%s): %v", id, err)
				return
			}
			if _, err := m.SetDescription(id, "desc "+id); err != nil {
				t.Errorf("SetDescription(%s): %v", id, err)
				return
			}
			if _, err := m.Finalize(id); err != nil {
				t.Errorf("Finalize(%s): %v", id, err)
			}
		}()
	}
	wg.Wait()

	for _, id := range reporters {
		if _, ok := m.Snapshot(id); ok {
			t.Errorf("reporter %s still has a pending entry", id)
		}
	}
}
