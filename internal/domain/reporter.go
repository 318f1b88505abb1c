package domain

import "time"

type Badge string

const (
	BadgePlatinum Badge = "platinum"
	BadgeGold     Badge = "gold"
	BadgeSilver   Badge = "silver"
	BadgeBronze   Badge = "bronze"
	BadgeNone     Badge = "none"
)

type Reporter struct {
	ID                string    `json:"id"`
	TrustScore        int       `json:"trust_score"` // 0..100, starts at 50
	ReportsCount      int       `json:"reports_count"`
	AccurateCount     int       `json:"accurate_count"`
	Language          string    `json:"language"`
	EmergencyContacts []string  `json:"emergency_contacts,omitempty"`
	Tier              string    `json:"tier"`
	CreatedAt         time.Time `json:"created_at"`
}

// BadgeFor derives the reporter badge from trust and volume.
// Tiers are checked highest first.
func BadgeFor(trustScore, reportsCount int) Badge {
	switch {
	case trustScore >= 90 && reportsCount >= 100:
		return BadgePlatinum
	case trustScore >= 75 && reportsCount >= 50:
		return BadgeGold
	case trustScore >= 60 && reportsCount >= 20:
		return BadgeSilver
	case reportsCount >= 5:
		return BadgeBronze
	default:
		return BadgeNone
	}
}

// ClampTrust bounds a trust score to the [0,100] invariant.
func ClampTrust(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
