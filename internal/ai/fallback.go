package ai

import (
	"context"
	"regexp"
	"strings"

	"roadwatch/internal/domain"
)

// Confidence levels reported by the two analysis paths.
const (
	fallbackConfidence = 0.6
	maxDescriptionLen  = 100
)

// wholeWords compiles an alternation anchored on letter/digit
// boundaries. regexp's \b is ASCII-only and never fires after an
// accented rune, so keywords like cassé or grève need explicit
// Unicode boundaries.
func wholeWords(alternation string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(?:` + alternation + `)(?:$|[^\p{L}\p{N}])`)
}

// emergencyPattern matches whole words from the multilingual
// emergency set. A hit forces type=sos, severity=5.
var emergencyPattern = wholeWords(`sos|urgence|emergency|help|au secours|aide`)

// typeRule binds an ordered whole-word pattern to an incident type.
// First match wins; the order is part of the contract.
type typeRule struct {
	pattern *regexp.Regexp
	typ     domain.IncidentType
}

var typeRules = []typeRule{
	{wholeWords(`accident|collision|crash`), domain.TypeAccident},
	{wholeWords(`police|gendarmerie|checkpoint`), domain.TypePoliceControl},
	{wholeWords(`flood|inondation|water`), domain.TypeFlooding},
	{wholeWords(`jam|bouchon|embouteillage`), domain.TypeTrafficJam},
	{wholeWords(`works|chantier|travaux`), domain.TypeRoadWorks},
	{wholeWords(`fallen|debris|hazard|arbre`), domain.TypeHazard},
	{wholeWords(`road|hole|damage|cassé`), domain.TypeRoadDamage},
	{wholeWords(`protest|manifestation|grève`), domain.TypeProtest},
	{wholeWords(`barrage|roadblock`), domain.TypeRoadblock},
}

// Fallback is the deterministic keyword classifier used when no AI
// backend is configured or a backend call fails. Same input, same
// output, always.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) AnalyzeText(_ context.Context, text string) (*domain.ParsedIncident, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	parsed := &domain.ParsedIncident{
		Type:        domain.TypeOther,
		Severity:    3,
		Description: truncate(trimmed, maxDescriptionLen),
		Confidence:  fallbackConfidence,
	}

	if emergencyPattern.MatchString(trimmed) {
		parsed.Type = domain.TypeSOS
		parsed.Severity = 5
		parsed.IsEmergency = true
		return parsed, nil
	}

	for _, rule := range typeRules {
		if rule.pattern.MatchString(trimmed) {
			parsed.Type = rule.typ
			break
		}
	}

	return parsed, nil
}

// Voice and photo have no rule-based equivalent: without a backend the
// classifier cannot see inside a binary payload.
func (f *Fallback) AnalyzeVoice(context.Context, []byte, string) (*domain.ParsedIncident, error) {
	return nil, nil
}

func (f *Fallback) AnalyzePhoto(context.Context, []byte, string) (*domain.ParsedIncident, error) {
	return nil, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
