package domain

import (
	"time"

	"github.com/google/uuid"
)

type IncidentStatus string

const (
	IncidentPending  IncidentStatus = "pending"
	IncidentVerified IncidentStatus = "verified"
	IncidentExpired  IncidentStatus = "expired"
	IncidentFalse    IncidentStatus = "false"
)

type IncidentType string

const (
	TypeAccident      IncidentType = "accident"
	TypePoliceControl IncidentType = "police_control"
	TypeFlooding      IncidentType = "flooding"
	TypeTrafficJam    IncidentType = "traffic_jam"
	TypeRoadDamage    IncidentType = "road_damage"
	TypeRoadWorks     IncidentType = "road_works"
	TypeHazard        IncidentType = "hazard"
	TypeProtest       IncidentType = "protest"
	TypeRoadblock     IncidentType = "roadblock"
	TypeSOS           IncidentType = "sos"
	TypeOther         IncidentType = "other"
)

var incidentTypes = map[IncidentType]struct{}{
	TypeAccident: {}, TypePoliceControl: {}, TypeFlooding: {},
	TypeTrafficJam: {}, TypeRoadDamage: {}, TypeRoadWorks: {},
	TypeHazard: {}, TypeProtest: {}, TypeRoadblock: {},
	TypeSOS: {}, TypeOther: {},
}

func ValidIncidentType(t IncidentType) bool {
	_, ok := incidentTypes[t]
	return ok
}

type Incident struct {
	ID            uuid.UUID      `json:"id"`
	Type          IncidentType   `json:"type"`
	Description   string         `json:"description" validate:"max=500"`
	Lat           float64        `json:"lat" validate:"lat"` // -90..90
	Lng           float64        `json:"lng" validate:"lng"` // -180..180
	Address       string         `json:"address,omitempty"`
	Severity      int            `json:"severity" validate:"severity"` // 1..5
	Status        IncidentStatus `json:"status"`
	Confirmations int            `json:"confirmations"`
	MediaRef      string         `json:"media_ref,omitempty"`
	ReportedBy    string         `json:"reported_by"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
}

// IsCritical marks incidents the broadcast sink should pin.
func (i *Incident) IsCritical() bool {
	return i.Type == TypeSOS || i.Severity >= 4
}
