package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/handlers"
	"github.com/GregMSThompson/finance-dashboard/internal/query"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
	"github.com/GregMSThompson/finance-dashboard/internal/router"
	"github.com/GregMSThompson/finance-dashboard/internal/services"
	"github.com/GregMSThompson/finance-dashboard/internal/session"
)

const sweepInterval = time.Minute

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)

	// session caches
	metrics := query.NewPromMetrics(bs.Metrics)
	sessions := session.NewRegistry(bs.Log, cfg.SessionMax, cfg.SessionTTL, query.WithMetrics(metrics))
	defer sessions.Close()
	go sessions.Run(ctx, sweepInterval)

	// services
	dserv := services.NewDashboardService(bs.Dashboard, cfg.MaxChartPoints)
	eserv := services.NewExportService(bs.Dashboard, cfg.ExportTimeout)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Sessions = sessions
	deps.DashboardSvc = dserv
	deps.ExportSvc = eserv
	deps.Metrics = bs.Metrics
	if bs.Firebase != nil {
		deps.Verifier = bs.Firebase
	}

	// router
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			bs.Log.Error("server shutdown failed", "error", err)
		}
	}()

	bs.Log.Info("server starting", "port", cfg.Port, "upstream", cfg.UpstreamBaseURL, "verify_tokens", cfg.VerifyTokens)
	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	exitOnError("server start failed", err, bs.Log)
}
