package admin_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"roadwatch/internal/api/handlers/http/admin"
	mock_admin "roadwatch/internal/api/handlers/http/admin/mocks"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRouter(h *admin.Handler) *chi.Mux {
	r := chi.NewMux()
	r.Get("/api/v1/admin/incidents", h.AdminIncidentList)
	r.Get("/api/v1/admin/incidents/{id}", h.AdminIncidentGet)
	r.Put("/api/v1/admin/incidents/{id}/status", h.AdminIncidentUpdateStatus)
	r.Get("/api/v1/admin/leaderboard", h.AdminLeaderboard)
	r.Get("/api/v1/admin/stats", h.AdminStats)
	return r
}

func TestAdminIncidentList_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_admin.NewMockAdminHandler(ctrl)
	router := newTestRouter(admin.NewHandler(newTestLogger(), svc))

	svc.EXPECT().
		List(gomock.Any(), 2, 5).
		Return([]*domain.Incident{{ID: uuid.New()}}, int64(11), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/incidents?page=2&limit=5", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp domain.ListIncidentsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 11 || resp.Page != 2 || len(resp.Incidents) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAdminIncidentGet_NotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_admin.NewMockAdminHandler(ctrl)
	router := newTestRouter(admin.NewHandler(newTestLogger(), svc))

	id := uuid.New()
	svc.EXPECT().Get(gomock.Any(), id).Return(nil, e.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/incidents/"+id.String(), nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestAdminIncidentUpdateStatus_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_admin.NewMockAdminHandler(ctrl)
	router := newTestRouter(admin.NewHandler(newTestLogger(), svc))

	id := uuid.New()
	svc.EXPECT().
		UpdateStatus(gomock.Any(), id, domain.IncidentExpired).
		Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/incidents/"+id.String()+"/status",
		bytes.NewBufferString(`{"status":"expired"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestAdminIncidentUpdateStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_admin.NewMockAdminHandler(ctrl)
	router := newTestRouter(admin.NewHandler(newTestLogger(), svc))

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/incidents/"+id.String()+"/status",
		bytes.NewBufferString(`{"status":"bogus"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestAdminStats_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_admin.NewMockAdminHandler(ctrl)
	router := newTestRouter(admin.NewHandler(newTestLogger(), svc))

	svc.EXPECT().
		Stats(gomock.Any(), 120).
		Return(&domain.EngineStats{ActiveIncidents: 3, VerifiedIncidents: 1, ReportsLastWindow: 7, Minutes: 120}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats?minutes=120", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var stats domain.EngineStats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if stats.ActiveIncidents != 3 || stats.Minutes != 120 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAdminLeaderboard_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_admin.NewMockAdminHandler(ctrl)
	router := newTestRouter(admin.NewHandler(newTestLogger(), svc))

	svc.EXPECT().
		Leaderboard(gomock.Any(), 10).
		Return([]domain.LeaderboardEntry{
			{ReporterID: "rep-1", TrustScore: 80, ReportsCount: 60, Badge: domain.BadgeGold},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/leaderboard", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp map[string][]domain.LeaderboardEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp["leaderboard"]) != 1 || resp["leaderboard"][0].Badge != domain.BadgeGold {
		t.Fatalf("unexpected leaderboard: %+v", resp)
	}
}
