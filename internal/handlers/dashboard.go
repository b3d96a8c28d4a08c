package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/middleware"
	"github.com/GregMSThompson/finance-dashboard/internal/optimizer"
	"github.com/GregMSThompson/finance-dashboard/internal/query"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

type dashboardService interface {
	Dashboard(ctx context.Context, c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics]
	Prefetch(ctx context.Context, c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64)
	IsStale(c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) bool
	Invalidate(ctx context.Context, c *query.Client, types ...dto.DashboardType) error
	Refresh(ctx context.Context, c *query.Client) error
	Cleanup(c *query.Client)
}

type sessionStore interface {
	Get(ctx context.Context, id string) *query.Client
	Remove(id string) bool
}

type dashboardHandlers struct {
	ResponseHandler response.ResponseHandler
	Sessions        sessionStore
	DashboardSvc    dashboardService
}

func NewDashboardHandlers(deps *Deps) *dashboardHandlers {
	return &dashboardHandlers{
		ResponseHandler: deps.ResponseHandler,
		Sessions:        deps.Sessions,
		DashboardSvc:    deps.DashboardSvc,
	}
}

func (h *dashboardHandlers) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	// static routes must be registered before /{type}
	r.Post("/cache/invalidate", h.InvalidateCache)
	r.Delete("/cache", h.ClearCache)
	r.Post("/refresh-cache", h.RefreshCache)
	r.Post("/session/focus", h.WindowFocused)
	r.Post("/session/reconnect", h.Reconnected)
	r.Get("/{type}", h.GetDashboard)
	r.Get("/{type}/stale", h.GetStale)
	r.Post("/{type}/prefetch", h.Prefetch)
	return r
}

func (h *dashboardHandlers) session(r *http.Request) *query.Client {
	return h.Sessions.Get(r.Context(), middleware.SessionID(r.Context()))
}

// GetDashboard serves a dashboard from the session cache, fetching it when it
// is missing or stale. refresh=true forces a refetch.
func (h *dashboardHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := parseDashboardParams(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	opts := &query.Options{RefetchOnMount: query.RefetchIfStale}
	if boolParam(r, "refresh") {
		opts.RefetchOnMount = query.RefetchAlways
	}
	state := h.DashboardSvc.Dashboard(r.Context(), h.session(r), p.Type, p.Period, p.FileID, opts)
	if state.IsError && state.Data == nil {
		h.ResponseHandler.HandleError(w, r, state.Error)
		return
	}
	if state.Data != nil {
		shaped := *state.Data
		shaped.Charts = optimizer.CompressCharts(shaped.Charts)
		state.Data = &shaped
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, state)
}

func (h *dashboardHandlers) GetStale(w http.ResponseWriter, r *http.Request) {
	p, err := parseDashboardParams(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	stale := h.DashboardSvc.IsStale(h.session(r), p.Type, p.Period, p.FileID)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.StaleResponse{Stale: stale})
}

type prefetchResponse struct {
	JobID string `json:"job_id"`
}

// Prefetch warms the cache in the background and returns immediately.
func (h *dashboardHandlers) Prefetch(w http.ResponseWriter, r *http.Request) {
	p, err := parseDashboardParams(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	jobID := uuid.NewString()
	c := h.session(r)
	_, ctx := logger.With(context.WithoutCancel(r.Context()), "prefetch_job", jobID)
	go h.DashboardSvc.Prefetch(ctx, c, p.Type, p.Period, p.FileID)

	h.ResponseHandler.WriteSuccess(w, r, http.StatusAccepted, prefetchResponse{JobID: jobID})
}

func (h *dashboardHandlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	types, err := parseTypes(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.DashboardSvc.Invalidate(r.Context(), h.session(r), types...); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusNoContent, nil)
}

func (h *dashboardHandlers) RefreshCache(w http.ResponseWriter, r *http.Request) {
	if err := h.DashboardSvc.Refresh(r.Context(), h.session(r)); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

// ClearCache drops everything cached for the session, e.g. on logout.
func (h *dashboardHandlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r.Context())
	h.DashboardSvc.Cleanup(h.Sessions.Get(r.Context(), id))
	h.Sessions.Remove(id)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusNoContent, nil)
}

func (h *dashboardHandlers) WindowFocused(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).WindowFocused(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusNoContent, nil)
}

func (h *dashboardHandlers) Reconnected(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).Reconnected(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusNoContent, nil)
}
