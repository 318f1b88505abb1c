package service

import (
	"fmt"
	"strings"

	"roadwatch/internal/domain"
)

var typeLabels = map[domain.IncidentType]string{
	domain.TypeAccident:      "Accident",
	domain.TypePoliceControl: "Police control",
	domain.TypeFlooding:      "Flooding",
	domain.TypeTrafficJam:    "Traffic jam",
	domain.TypeRoadDamage:    "Road damage",
	domain.TypeRoadWorks:     "Road works",
	domain.TypeHazard:        "Road hazard",
	domain.TypeProtest:       "Protest",
	domain.TypeRoadblock:     "Roadblock",
	domain.TypeSOS:           "SOS",
	domain.TypeOther:         "Incident",
}

// FormatBroadcast renders one incident for the broadcast sink. Pure
// text rendering; no I/O, fully testable.
func FormatBroadcast(inc *domain.Incident, merged bool) (string, bool) {
	var b strings.Builder

	if inc.IsCritical() {
		b.WriteString("[URGENT] ")
	}

	label, ok := typeLabels[inc.Type]
	if !ok {
		label = "Incident"
	}
	b.WriteString(label)

	if merged {
		b.WriteString(" (confirmed)")
	}

	if inc.Address != "" {
		b.WriteString(" near ")
		b.WriteString(inc.Address)
	} else {
		b.WriteString(fmt.Sprintf(" at %.4f, %.4f", inc.Lat, inc.Lng))
	}

	if inc.Description != "" {
		b.WriteString(": ")
		b.WriteString(inc.Description)
	}

	b.WriteString(fmt.Sprintf(" [severity %d", inc.Severity))
	if inc.Confirmations > 1 {
		b.WriteString(fmt.Sprintf(", %d reports", inc.Confirmations))
	}
	b.WriteString("]")

	return b.String(), inc.IsCritical()
}
