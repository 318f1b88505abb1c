package service

import (
	"strings"
	"testing"

	"roadwatch/internal/domain"
)

func TestFormatBroadcast(t *testing.T) {
	tests := []struct {
		name         string
		incident     domain.Incident
		merged       bool
		wantParts    []string
		wantCritical bool
	}{
		{
			name: "plain accident with address",
			incident: domain.Incident{
				Type:        domain.TypeAccident,
				Description: "two cars blocking the left lane",
				Address:     "Rond-point Nlongkak",
				Severity:    3,
			},
			wantParts:    []string{"Accident", "near Rond-point Nlongkak", "two cars", "[severity 3]"},
			wantCritical: false,
		},
		{
			name: "sos is always critical",
			incident: domain.Incident{
				Type:     domain.TypeSOS,
				Lat:      3.848,
				Lng:      11.5021,
				Severity: 5,
			},
			wantParts:    []string{"[URGENT]", "SOS", "3.8480, 11.5021", "[severity 5]"},
			wantCritical: true,
		},
		{
			name: "high severity flags critical",
			incident: domain.Incident{
				Type:     domain.TypeFlooding,
				Severity: 4,
				Address:  "Pont de la Dibamba",
			},
			wantParts:    []string{"[URGENT]", "Flooding"},
			wantCritical: true,
		},
		{
			name: "merged shows confirmation count",
			incident: domain.Incident{
				Type:          domain.TypeTrafficJam,
				Severity:      2,
				Address:       "Axe Lourd",
				Confirmations: 3,
			},
			merged:       true,
			wantParts:    []string{"Traffic jam (confirmed)", "3 reports"},
			wantCritical: false,
		},
		{
			name: "unknown type falls back to generic label",
			incident: domain.Incident{
				Type:     domain.IncidentType("weird"),
				Severity: 1,
				Address:  "somewhere",
			},
			wantParts: []string{"Incident near somewhere"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, critical := FormatBroadcast(&tt.incident, tt.merged)

			for _, part := range tt.wantParts {
				if !strings.Contains(text, part) {
					t.Errorf("text %q missing %q", text, part)
				}
			}
			if critical != tt.wantCritical {
				t.Errorf("critical = %v, want %v", critical, tt.wantCritical)
			}
		})
	}
}

func TestFormatBroadcastSingleReportOmitsCount(t *testing.T) {
	text, _ := FormatBroadcast(&domain.Incident{
		Type:          domain.TypeHazard,
		Severity:      2,
		Address:       "Carrefour Bastos",
		Confirmations: 1,
	}, false)

	if strings.Contains(text, "reports") {
		t.Errorf("single-report text should not mention report count: %q", text)
	}
}
