package public

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"roadwatch/internal/domain"
	"roadwatch/pkg/validator"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type VerificationHandler interface {
	Confirm(ctx context.Context, incidentID uuid.UUID, reporterID string, vote domain.Vote) (domain.ConfirmResult, error)
}

type QueryHandler interface {
	Nearby(ctx context.Context, req domain.NearbyRequest) ([]*domain.Incident, error)
	Active(ctx context.Context, maxAgeMinutes int) ([]*domain.Incident, error)
}

type Handler struct {
	logger              *slog.Logger
	VerificationHandler VerificationHandler
	QueryHandler        QueryHandler
}

func NewHandler(logger *slog.Logger, verification VerificationHandler, query QueryHandler) *Handler {
	return &Handler{
		logger:              logger,
		VerificationHandler: verification,
		QueryHandler:        query,
	}
}

// IncidentConfirm records a confirm/deny vote on an incident.
func (h *Handler) IncidentConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid incident id"})
		return
	}

	var req domain.ConfirmRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := h.VerificationHandler.Confirm(r.Context(), id, req.ReporterID, req.Vote)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// IncidentsNearby serves ?lat=&lng=&radius_km= ambient queries.
func (h *Handler) IncidentsNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := domain.NearbyRequest{
		Lat:      parseFloat(q.Get("lat"), 200), // out of range forces validation failure
		Lng:      parseFloat(q.Get("lng"), 200),
		RadiusKM: parseFloat(q.Get("radius_km"), 0),
	}

	incidents, err := h.QueryHandler.Nearby(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"incidents": incidents})
}

func (h *Handler) IncidentsActive(w http.ResponseWriter, r *http.Request) {
	maxAge := parseInt(r.URL.Query().Get("max_age_minutes"), 0)

	incidents, err := h.QueryHandler.Active(r.Context(), maxAge)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"incidents": incidents})
}
