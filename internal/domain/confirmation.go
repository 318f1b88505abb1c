package domain

import (
	"time"

	"github.com/google/uuid"
)

type Vote string

const (
	VoteConfirm Vote = "confirm"
	VoteDeny    Vote = "deny"
)

// Confirmation is one reporter's vote on an incident.
// (incident_id, reporter_id) is unique at the store level.
type Confirmation struct {
	IncidentID uuid.UUID `json:"incident_id"`
	ReporterID string    `json:"reporter_id"`
	Vote       Vote      `json:"vote"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConfirmResult struct {
	Accepted      bool           `json:"accepted"` // false on duplicate vote
	Confirmations int            `json:"confirmations"`
	Status        IncidentStatus `json:"status"`
}
