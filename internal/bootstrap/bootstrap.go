package bootstrap

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/GregMSThompson/finance-dashboard/internal/client/dashboardapi"
	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/middleware"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Firebase  *auth.Client
	Metrics   *prometheus.Registry
	Dashboard *dashboardapi.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)

	bs.Metrics = prometheus.NewRegistry()
	bs.Metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// the caller's token is forwarded as is
	bs.Dashboard = dashboardapi.NewAdapter(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, middleware.Token)

	if cfg.VerifyTokens {
		bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
	}

	return bs, nil
}
