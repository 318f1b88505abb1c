package domain

import "github.com/google/uuid"

type StartReportRequest struct {
	ReporterID string       `json:"reporter_id" validate:"required"`
	Type       IncidentType `json:"type" validate:"required"`
}

type ResetRequest struct {
	ReporterID string `json:"reporter_id" validate:"required"`
}

type ConfirmRequest struct {
	ReporterID string `json:"reporter_id" validate:"required"`
	Vote       Vote   `json:"vote" validate:"required,oneof=confirm deny"`
}

type NearbyRequest struct {
	Lat      float64 `json:"lat" validate:"lat"`
	Lng      float64 `json:"lng" validate:"lng"`
	RadiusKM float64 `json:"radius_km" validate:"min=0.05,max=100"`
}

type UpdateStatusRequest struct {
	Status IncidentStatus `json:"status" validate:"required,oneof=pending verified expired false"`
}

type MediaUploadRequest struct {
	ReporterID string `json:"reporter_id" validate:"required"`
	Extension  string `json:"extension" validate:"required,max=8"`
}

type MediaUploadResponse struct {
	ObjectName string `json:"object_name"`
	UploadURL  string `json:"upload_url"`
}

type ListIncidentsResponse struct {
	Incidents []*Incident `json:"incidents"`
	Page      int         `json:"page"`
	Limit     int         `json:"limit"`
	Total     int64       `json:"total"`
}

type LeaderboardEntry struct {
	ReporterID    string `json:"reporter_id"`
	TrustScore    int    `json:"trust_score"`
	ReportsCount  int    `json:"reports_count"`
	AccurateCount int    `json:"accurate_count"`
	Badge         Badge  `json:"badge"`
}

type EngineStats struct {
	ActiveIncidents   int64 `json:"active_incidents"`
	VerifiedIncidents int64 `json:"verified_incidents"`
	ReportsLastWindow int64 `json:"reports_last_window"`
	Minutes           int   `json:"minutes"`
}

type IncidentIDResponse struct {
	ID uuid.UUID `json:"id"`
}
