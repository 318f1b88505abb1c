package public_test

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

	"roadwatch/internal/api/handlers/http/public"
	mock_public "roadwatch/internal/api/handlers/http/public/mocks"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRouter(h *public.Handler) *chi.Mux {
	r := chi.NewMux()
	r.Get("/api/v1/incidents/nearby", h.IncidentsNearby)
	r.Get("/api/v1/incidents/active", h.IncidentsActive)
	r.Post("/api/v1/incidents/{id}/confirm", h.IncidentConfirm)
	return r
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func TestIncidentConfirm_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verification := mock_public.NewMockVerificationHandler(ctrl)
	query := mock_public.NewMockQueryHandler(ctrl)
	router := newTestRouter(public.NewHandler(newTestLogger(), verification, query))

	id := uuid.New()
	want := domain.ConfirmResult{Accepted: true, Confirmations: 2, Status: domain.IncidentVerified}

	verification.EXPECT().
		Confirm(gomock.Any(), id, "voter-1", domain.VoteConfirm).
		Return(want, nil).
		Times(1)

	body := `{"reporter_id":"voter-1","vote":"confirm"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+id.String()+"/confirm", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.ConfirmResult](t, rr)
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestIncidentConfirm_BadID(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newTestRouter(public.NewHandler(newTestLogger(),
		mock_public.NewMockVerificationHandler(ctrl),
		mock_public.NewMockQueryHandler(ctrl)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/not-a-uuid/confirm",
		bytes.NewBufferString(`{"reporter_id":"voter-1","vote":"confirm"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestIncidentConfirm_InvalidVote(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := newTestRouter(public.NewHandler(newTestLogger(),
		mock_public.NewMockVerificationHandler(ctrl),
		mock_public.NewMockQueryHandler(ctrl)))

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+id.String()+"/confirm",
		bytes.NewBufferString(`{"reporter_id":"voter-1","vote":"maybe"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestIncidentConfirm_NotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	verification := mock_public.NewMockVerificationHandler(ctrl)
	router := newTestRouter(public.NewHandler(newTestLogger(), verification,
		mock_public.NewMockQueryHandler(ctrl)))

	id := uuid.New()
	verification.EXPECT().
		Confirm(gomock.Any(), id, "voter-1", domain.VoteDeny).
		Return(domain.ConfirmResult{}, e.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/"+id.String()+"/confirm",
		bytes.NewBufferString(`{"reporter_id":"voter-1","vote":"deny"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestIncidentsNearby_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	query := mock_public.NewMockQueryHandler(ctrl)
	router := newTestRouter(public.NewHandler(newTestLogger(),
		mock_public.NewMockVerificationHandler(ctrl), query))

	query.EXPECT().
		Nearby(gomock.Any(), domain.NearbyRequest{Lat: 3.848, Lng: 11.5021, RadiusKM: 2}).
		Return([]*domain.Incident{{ID: uuid.New()}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/nearby?lat=3.848&lng=11.5021&radius_km=2", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[map[string][]*domain.Incident](t, rr)
	if len(got["incidents"]) != 1 {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestIncidentsNearby_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	query := mock_public.NewMockQueryHandler(ctrl)
	router := newTestRouter(public.NewHandler(newTestLogger(),
		mock_public.NewMockVerificationHandler(ctrl), query))

	query.EXPECT().
		Nearby(gomock.Any(), gomock.Any()).
		Return(nil, e.ErrInvalidCoordinates)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/nearby?lat=999&lng=11.5", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestIncidentsActive_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	query := mock_public.NewMockQueryHandler(ctrl)
	router := newTestRouter(public.NewHandler(newTestLogger(),
		mock_public.NewMockVerificationHandler(ctrl), query))

	query.EXPECT().
		Active(gomock.Any(), 30).
		Return([]*domain.Incident{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents/active?max_age_minutes=30", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[map[string][]*domain.Incident](t, rr)
	if got["incidents"] == nil {
		t.Fatalf("expected incidents array, body = %s", rr.Body.String())
	}
}
