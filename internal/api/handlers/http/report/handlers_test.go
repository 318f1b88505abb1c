package report_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/golang/mock/gomock"

	"roadwatch/internal/api/handlers/http/report"
	mock_report "roadwatch/internal/api/handlers/http/report/mocks"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func TestReportStart_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_report.NewMockReportHandler(ctrl)
	h := report.NewHandler(newTestLogger(), svc, nil)

	svc.EXPECT().
		Start(gomock.Any(), "rep-1", domain.TypeAccident).
		Return(domain.IntakeResult{Outcome: domain.OutcomePromptDescription}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/start",
		bytes.NewBufferString(`{"reporter_id":"rep-1","type":"accident"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.ReportStart(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.IntakeResult](t, rr)
	if got.Outcome != domain.OutcomePromptDescription {
		t.Fatalf("unexpected outcome %q", got.Outcome)
	}
}

func TestReportStart_FlowInProgress(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_report.NewMockReportHandler(ctrl)
	h := report.NewHandler(newTestLogger(), svc, nil)

	svc.EXPECT().
		Start(gomock.Any(), "rep-1", domain.TypeAccident).
		Return(domain.IntakeResult{}, e.ErrFlowInProgress)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/start",
		bytes.NewBufferString(`{"reporter_id":"rep-1","type":"accident"}`))
	rr := httptest.NewRecorder()

	h.ReportStart(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestReportFragment_PersistedReturns201(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_report.NewMockReportHandler(ctrl)
	h := report.NewHandler(newTestLogger(), svc, nil)

	svc.EXPECT().
		HandleFragment(gomock.Any(), gomock.Any()).
		Return(domain.IntakeResult{Outcome: domain.OutcomePersisted}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports",
		bytes.NewBufferString(`{"reporter_id":"rep-1","kind":"location","lat":3.848,"lng":11.5021}`))
	rr := httptest.NewRecorder()

	h.ReportFragment(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestReportFragment_InvalidJSON(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := report.NewHandler(newTestLogger(), mock_report.NewMockReportHandler(ctrl), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports",
		bytes.NewBufferString(`{"reporter_id":`))
	rr := httptest.NewRecorder()

	h.ReportFragment(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestReportFragment_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := report.NewHandler(newTestLogger(), mock_report.NewMockReportHandler(ctrl), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports",
		bytes.NewBufferString(`{"reporter_id":"rep-1","kind":"text","text":"hi","bogus":1}`))
	rr := httptest.NewRecorder()

	h.ReportFragment(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestReportReset_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_report.NewMockReportHandler(ctrl)
	h := report.NewHandler(newTestLogger(), svc, nil)

	svc.EXPECT().
		Reset(gomock.Any(), "rep-1").
		Return(domain.IntakeResult{Outcome: domain.OutcomeReset}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/reset",
		bytes.NewBufferString(`{"reporter_id":"rep-1"}`))
	rr := httptest.NewRecorder()

	h.ReportReset(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestMediaUploadURL_DisabledStore(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := report.NewHandler(newTestLogger(), mock_report.NewMockReportHandler(ctrl), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload-url",
		bytes.NewBufferString(`{"reporter_id":"rep-1","extension":"jpg"}`))
	rr := httptest.NewRecorder()

	h.MediaUploadURL(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
}
