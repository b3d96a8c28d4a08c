package handlers

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GregMSThompson/finance-dashboard/internal/middleware"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Sessions        sessionStore
	DashboardSvc    dashboardService
	ExportSvc       exportService
	Verifier        middleware.TokenVerifier
	Metrics         prometheus.Gatherer
}
