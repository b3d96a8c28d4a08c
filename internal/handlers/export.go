package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
	"github.com/GregMSThompson/finance-dashboard/internal/services"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

type exportService interface {
	StartExport(ctx context.Context, format string, period dto.DashboardPeriod, fileID *int64) (dto.ExportJob, error)
	PollExportStatus(ctx context.Context, exportID string, opts services.PollOptions) (dto.ExportStatus, error)
}

type exportHandlers struct {
	ResponseHandler response.ResponseHandler
	ExportSvc       exportService
}

func NewExportHandlers(deps *Deps) *exportHandlers {
	return &exportHandlers{
		ResponseHandler: deps.ResponseHandler,
		ExportSvc:       deps.ExportSvc,
	}
}

func (h *exportHandlers) ExportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{format}", h.StartExport)
	r.Get("/{exportId}", h.WaitForExport)
	return r
}

func (h *exportHandlers) StartExport(w http.ResponseWriter, r *http.Request) {
	period, fileID, err := parsePeriodParams(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	job, err := h.ExportSvc.StartExport(r.Context(), chi.URLParam(r, "format"), period, fileID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusAccepted, job)
}

// WaitForExport polls the export until it settles. backoff=true grows the
// poll interval between attempts.
func (h *exportHandlers) WaitForExport(w http.ResponseWriter, r *http.Request) {
	exportID := chi.URLParam(r, "exportId")
	log := logger.FromContext(r.Context())

	st, err := h.ExportSvc.PollExportStatus(r.Context(), exportID, services.PollOptions{
		Backoff: boolParam(r, "backoff"),
		OnProgress: func(s dto.ExportStatus) {
			log.Debug("export progress",
				"export_id", exportID,
				"status", s.Status,
				"progress", s.ProgressPercentage,
				"step", s.CurrentStep)
		},
	})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, st)
}
