package domain

import "time"

type FragmentKind string

const (
	FragmentText     FragmentKind = "text"
	FragmentVoice    FragmentKind = "voice"
	FragmentPhoto    FragmentKind = "photo"
	FragmentLocation FragmentKind = "location"
)

// ReportFragment is one inbound message from a reporter's flow.
// Text fragments carry Text; voice/photo carry Payload+MimeType
// (already fetched by the transport); location carries Lat/Lng.
type ReportFragment struct {
	ReporterID string       `json:"reporter_id" validate:"required"`
	Kind       FragmentKind `json:"kind" validate:"required,oneof=text voice photo location"`
	Text       string       `json:"text,omitempty" validate:"max=2000"`
	Payload    []byte       `json:"payload,omitempty"`
	MimeType   string       `json:"mime_type,omitempty"`
	Lat        float64      `json:"lat,omitempty"`
	Lng        float64      `json:"lng,omitempty"`
	Address    string       `json:"address,omitempty"`
	MediaRef   string       `json:"media_ref,omitempty"`
	Timestamp  time.Time    `json:"timestamp,omitempty"`
}

type IntakeStep string

const (
	StepAwaitingDescription IntakeStep = "awaiting_description"
	StepAwaitingLocation    IntakeStep = "awaiting_location"
	StepComplete            IntakeStep = "complete"
)

// PendingReport is the in-flight report assembled by the intake
// machine. It never reaches the store; one live entry per reporter.
type PendingReport struct {
	ReporterID  string       `json:"reporter_id"`
	Type        IncidentType `json:"type"`
	Description string       `json:"description"`
	Severity    int          `json:"severity"`
	MediaRef    string       `json:"media_ref"`
	Step        IntakeStep   `json:"step"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ParsedIncident is the AI parser contract output. Confidence is
// informational only and never gates persistence.
type ParsedIncident struct {
	Type         IncidentType `json:"type"`
	Severity     int          `json:"severity"`
	Description  string       `json:"description"`
	LocationHint string       `json:"location_hint,omitempty"`
	IsEmergency  bool         `json:"is_emergency"`
	Confidence   float64      `json:"confidence"`
}

type IntakeOutcome string

const (
	OutcomePromptDescription IntakeOutcome = "prompt_description"
	OutcomePromptLocation    IntakeOutcome = "prompt_location"
	OutcomePersisted         IntakeOutcome = "persisted"
	OutcomeMerged            IntakeOutcome = "merged"
	OutcomeAmbientQuery      IntakeOutcome = "ambient_query"
	OutcomeNotUnderstood     IntakeOutcome = "not_understood"
	OutcomeReset             IntakeOutcome = "reset"
)

// IntakeResult is what the transport renders back to the reporter.
type IntakeResult struct {
	Outcome  IntakeOutcome `json:"outcome"`
	Incident *Incident     `json:"incident,omitempty"`
	Nearby   []*Incident   `json:"nearby,omitempty"`
}

type BroadcastMessage struct {
	Text     string `json:"text"`
	Critical bool   `json:"critical"`
}
