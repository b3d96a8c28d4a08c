package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GregMSThompson/finance-dashboard/internal/handlers"
	"github.com/GregMSThompson/finance-dashboard/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gatherer := deps.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	dh := handlers.NewDashboardHandlers(deps)
	eh := handlers.NewExportHandlers(deps)
	auth := middleware.NewMiddleware(deps.Verifier)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(auth.BearerAuth)
		r.Mount("/exports", eh.ExportRoutes())
		r.Mount("/", dh.DashboardRoutes())
	})
	return r
}
