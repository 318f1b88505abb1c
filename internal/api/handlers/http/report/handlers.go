package report

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"log/slog"

	"roadwatch/internal/domain"
	"roadwatch/internal/storage/media"
	"roadwatch/pkg/validator"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type ReportHandler interface {
	Start(ctx context.Context, reporterID string, typ domain.IncidentType) (domain.IntakeResult, error)
	HandleFragment(ctx context.Context, frag domain.ReportFragment) (domain.IntakeResult, error)
	Reset(ctx context.Context, reporterID string) (domain.IntakeResult, error)
}

type Handler struct {
	logger        *slog.Logger
	ReportHandler ReportHandler
	media         media.Store
}

// NewHandler wires the intake endpoints. media may be nil when object
// storage is disabled; the upload-url endpoint then answers 503.
func NewHandler(logger *slog.Logger, reportHandler ReportHandler, mediaStore media.Store) *Handler {
	return &Handler{
		logger:        logger,
		ReportHandler: reportHandler,
		media:         mediaStore,
	}
}

// ReportStart handles an explicit type selection.
func (h *Handler) ReportStart(w http.ResponseWriter, r *http.Request) {
	var req domain.StartReportRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.ReportHandler.Start(r.Context(), req.ReporterID, req.Type)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// ReportFragment feeds one message into the intake machine.
func (h *Handler) ReportFragment(w http.ResponseWriter, r *http.Request) {
	var frag domain.ReportFragment
	if !h.decode(w, r, &frag) {
		return
	}

	res, err := h.ReportHandler.HandleFragment(r.Context(), frag)
	if err != nil {
		h.handleError(w, err)
		return
	}

	status := http.StatusOK
	if res.Outcome == domain.OutcomePersisted {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, res)
}

func (h *Handler) ReportReset(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.ReportHandler.Reset(r.Context(), req.ReporterID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// MediaUploadURL hands the client a presigned PUT so payload bytes
// never pass through the engine.
func (h *Handler) MediaUploadURL(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "media storage disabled"})
		return
	}

	var req domain.MediaUploadRequest
	if !h.decode(w, r, &req) {
		return
	}

	objectName := h.media.NewObjectName(req.ReporterID, req.Extension)
	url, err := h.media.PresignedUploadURL(r.Context(), objectName, 15*time.Minute)
	if err != nil {
		h.log(r).Error("presigned upload url failed", slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, domain.MediaUploadResponse{
		ObjectName: objectName,
		UploadURL:  url,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(target); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	if err := validator.ValidateStruct(target); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}
