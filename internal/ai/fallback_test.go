package ai_test

import (
	"context"
	"strings"
	"testing"

	"roadwatch/internal/ai"
	"roadwatch/internal/domain"
)

func TestFallback_ClassifiesByKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantType domain.IncidentType
	}{
		{"accident french", "Accident grave au carrefour Bastos", domain.TypeAccident},
		{"collision english", "Bad collision on the highway", domain.TypeAccident},
		{"police checkpoint", "police checkpoint near the bridge", domain.TypePoliceControl},
		{"gendarmerie", "contrôle gendarmerie avenue Kennedy", domain.TypePoliceControl},
		{"flooding", "inondation totale du quartier", domain.TypeFlooding},
		{"traffic jam", "gros embouteillage vers le rond-point", domain.TypeTrafficJam},
		{"road works", "travaux sur la chaussée", domain.TypeRoadWorks},
		{"fallen tree", "arbre tombé sur la route", domain.TypeHazard},
		{"road damage", "big hole in the road surface", domain.TypeRoadDamage},
		{"road damage accented keyword at end", "le pont est cassé", domain.TypeRoadDamage},
		{"accented keyword before punctuation", "attention, tout est cassé!", domain.TypeRoadDamage},
		{"protest", "manifestation au centre ville", domain.TypeProtest},
		{"roadblock", "barrage routier à la sortie nord", domain.TypeRoadblock},
		{"no keyword", "quelque chose de bizarre ici", domain.TypeOther},
	}

	f := ai.NewFallback()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			parsed, err := f.AnalyzeText(context.Background(), tc.text)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if parsed == nil {
				t.Fatal("expected a parsed incident")
			}
			if parsed.Type != tc.wantType {
				t.Fatalf("type = %q, want %q", parsed.Type, tc.wantType)
			}
			if parsed.IsEmergency {
				t.Fatal("non-emergency text flagged as emergency")
			}
			if parsed.Severity != 3 {
				t.Fatalf("severity = %d, want 3", parsed.Severity)
			}
			if parsed.Confidence != 0.6 {
				t.Fatalf("confidence = %f, want 0.6", parsed.Confidence)
			}
		})
	}
}

func TestFallback_EmergencyForcesSOS(t *testing.T) {
	t.Parallel()

	f := ai.NewFallback()
	for _, text := range []string{
		"SOS aide au secours",
		"URGENCE accident sur le pont", // emergency wins over type rules
		"please help, we are trapped",
	} {
		parsed, err := f.AnalyzeText(context.Background(), text)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if parsed.Type != domain.TypeSOS {
			t.Fatalf("%q: type = %q, want sos", text, parsed.Type)
		}
		if parsed.Severity != 5 {
			t.Fatalf("%q: severity = %d, want 5", text, parsed.Severity)
		}
		if !parsed.IsEmergency {
			t.Fatalf("%q: expected is_emergency", text)
		}
	}
}

func TestFallback_WholeWordMatchingOnly(t *testing.T) {
	t.Parallel()

	f := ai.NewFallback()
	// "saide" must not trip the "aide" emergency keyword
	parsed, err := f.AnalyzeText(context.Background(), "la palissaide est tombée")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if parsed.IsEmergency {
		t.Fatal("substring matched as whole word")
	}
}

func TestFallback_TruncatesDescription(t *testing.T) {
	t.Parallel()

	f := ai.NewFallback()
	long := strings.Repeat("embouteillage ", 20)
	parsed, err := f.AnalyzeText(context.Background(), long)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := len([]rune(parsed.Description)); got > 100 {
		t.Fatalf("description length = %d, want <= 100", got)
	}
}

func TestFallback_EmptyAndBinaryInputs(t *testing.T) {
	t.Parallel()

	f := ai.NewFallback()

	parsed, err := f.AnalyzeText(context.Background(), "   ")
	if err != nil || parsed != nil {
		t.Fatalf("blank text: got (%v, %v), want (nil, nil)", parsed, err)
	}

	parsed, err = f.AnalyzeVoice(context.Background(), []byte{0x01}, "audio/ogg")
	if err != nil || parsed != nil {
		t.Fatalf("voice: got (%v, %v), want (nil, nil)", parsed, err)
	}

	parsed, err = f.AnalyzePhoto(context.Background(), []byte{0x01}, "image/jpeg")
	if err != nil || parsed != nil {
		t.Fatalf("photo: got (%v, %v), want (nil, nil)", parsed, err)
	}
}

func TestFallback_Deterministic(t *testing.T) {
	t.Parallel()

	f := ai.NewFallback()
	const text = "accident et inondation au carrefour"
	first, _ := f.AnalyzeText(context.Background(), text)
	for i := 0; i < 10; i++ {
		again, _ := f.AnalyzeText(context.Background(), text)
		if *again != *first {
			t.Fatalf("run %d differed: %+v vs %+v", i, again, first)
		}
	}
	// ordered rules: accident appears first in the rule list
	if first.Type != domain.TypeAccident {
		t.Fatalf("type = %q, want accident (first matching rule wins)", first.Type)
	}
}
