package admin

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
type AdminHandler interface {
	List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.IncidentStatus) error
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Stats(ctx context.Context, minutes int) (*domain.EngineStats, error)
}

type Handler struct {
	logger       *slog.Logger
	AdminHandler AdminHandler
}

func NewHandler(logger *slog.Logger, adminHandler AdminHandler) *Handler {
	return &Handler{
		logger:       logger,
		AdminHandler: adminHandler,
	}
}

func (h *Handler) AdminIncidentList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseInt(q.Get("page"), 1)
	limit := parseInt(q.Get("limit"), 20)

	incidents, total, err := h.AdminHandler.List(r.Context(), page, limit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, domain.ListIncidentsResponse{
		Incidents: incidents,
		Page:      page,
		Limit:     limit,
		Total:     total,
	})
}

func (h *Handler) AdminIncidentGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid incident id"})
		return
	}

	incident, err := h.AdminHandler.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, incident)
}

func (h *Handler) AdminIncidentUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid incident id"})
		return
	}

	var req domain.UpdateStatusRequest

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

	if err := h.AdminHandler.UpdateStatus(r.Context(), id, req.Status); err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

func (h *Handler) AdminLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 10)

	entries, err := h.AdminHandler.Leaderboard(r.Context(), limit)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	minutes := parseInt(r.URL.Query().Get("minutes"), 60)

	stats, err := h.AdminHandler.Stats(r.Context(), minutes)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
