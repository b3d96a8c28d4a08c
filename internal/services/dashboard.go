package services

import (
	"context"

	"github.com/GregMSThompson/finance-dashboard/internal/cachemgr"
	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/optimizer"
	"github.com/GregMSThompson/finance-dashboard/internal/query"
)

// dashboardAPI is the upstream interface used by dashboardService.
type dashboardAPI interface {
	GetMetrics(ctx context.Context, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) (dto.DashboardMetrics, error)
	RefreshCache(ctx context.Context) error
}

type dashboardService struct {
	api       dashboardAPI
	maxPoints int
}

func NewDashboardService(api dashboardAPI, maxPoints int) *dashboardService {
	if maxPoints <= 0 {
		maxPoints = optimizer.MaxChartPoints
	}
	return &dashboardService{api: api, maxPoints: maxPoints}
}

// --- Per-family queries ---

func (s *dashboardService) CashFlow(ctx context.Context, c *query.Client, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics] {
	return s.Dashboard(ctx, c, dto.DashboardCashFlow, period, fileID, opts)
}

func (s *dashboardService) PL(ctx context.Context, c *query.Client, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics] {
	return s.Dashboard(ctx, c, dto.DashboardPL, period, fileID, opts)
}

func (s *dashboardService) BalanceSheet(ctx context.Context, c *query.Client, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics] {
	return s.Dashboard(ctx, c, dto.DashboardBalanceSheet, period, fileID, opts)
}

func (s *dashboardService) Ratios(ctx context.Context, c *query.Client, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics] {
	return s.Dashboard(ctx, c, dto.DashboardRatios, period, fileID, opts)
}

func (s *dashboardService) Variance(ctx context.Context, c *query.Client, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics] {
	return s.Dashboard(ctx, c, dto.DashboardVariance, period, fileID, opts)
}

func (s *dashboardService) KPIs(ctx context.Context, c *query.Client, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics] {
	return s.Dashboard(ctx, c, dto.DashboardKPI, period, fileID, opts)
}

// Dashboard loads one dashboard through the session cache c. The default
// query policy applies, shadowed by opts. Failures are reported in the
// returned state, never as a panic or bare error.
func (s *dashboardService) Dashboard(ctx context.Context, c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64, opts *query.Options) query.State[dto.DashboardMetrics] {
	key := query.GetCacheKey(t, period, fileID)
	return query.Use[dto.DashboardMetrics](ctx, c, key, s.QueryFunc(t, period, fileID), query.Merge(query.DefaultOptions(), opts))
}

// Refetch reloads a dashboard regardless of freshness.
func (s *dashboardService) Refetch(ctx context.Context, c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) query.State[dto.DashboardMetrics] {
	return s.Dashboard(ctx, c, t, period, fileID, &query.Options{RefetchOnMount: query.RefetchAlways})
}

// QueryFunc fetches a dashboard and bounds every chart series before the
// result reaches the cache.
func (s *dashboardService) QueryFunc(t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) query.QueryFunc {
	return func(ctx context.Context) (any, error) {
		m, err := s.api.GetMetrics(ctx, t, period, fileID)
		if err != nil {
			return nil, errs.ToDashboardError(err)
		}
		m.Charts = optimizer.OptimizeCharts(m.Charts, s.maxPoints)
		return m, nil
	}
}

// --- Cache management ---

func (s *dashboardService) Prefetch(ctx context.Context, c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) {
	cachemgr.PrefetchDashboard(ctx, c, t, period, s.QueryFunc(t, period, fileID), fileID)
}

func (s *dashboardService) Cached(c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) (dto.DashboardMetrics, bool) {
	return cachemgr.GetCachedData[dto.DashboardMetrics](c, t, period, fileID)
}

func (s *dashboardService) IsStale(c *query.Client, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) bool {
	return cachemgr.IsDataStale(c, t, period, fileID)
}

func (s *dashboardService) Invalidate(ctx context.Context, c *query.Client, types ...dto.DashboardType) error {
	return cachemgr.InvalidateCache(ctx, c, types...)
}

// Refresh asks the upstream to rebuild its caches, then invalidates every
// dashboard family in c.
func (s *dashboardService) Refresh(ctx context.Context, c *query.Client) error {
	if err := s.api.RefreshCache(ctx); err != nil {
		return errs.ToDashboardError(err)
	}
	return cachemgr.InvalidateCache(ctx, c)
}

func (s *dashboardService) Cleanup(c *query.Client) {
	cachemgr.Cleanup(c)
}
