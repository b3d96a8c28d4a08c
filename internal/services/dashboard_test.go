package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/query"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
)

// --- Fakes ---

type fakeDashboardAPI struct {
	mu         sync.Mutex
	metrics    dto.DashboardMetrics
	metricsErr error
	refreshErr error
	calls      int
	refreshes  int
	lastType   dto.DashboardType
	lastPeriod dto.DashboardPeriod
	lastFileID *int64
}

func (f *fakeDashboardAPI) GetMetrics(_ context.Context, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) (dto.DashboardMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastType, f.lastPeriod, f.lastFileID = t, period, fileID
	return f.metrics, f.metricsErr
}

func (f *fakeDashboardAPI) RefreshCache(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.refreshErr
}

func (f *fakeDashboardAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func series(n int) []dto.ChartDataPoint {
	out := make([]dto.ChartDataPoint, n)
	for i := range out {
		out[i] = dto.ChartDataPoint{Period: fmt.Sprintf("d%03d", i), Value: float64(i) * 1.5}
	}
	return out
}

// noRetryWait keeps the default policy but skips the backoff sleeps.
func noRetryWait() *query.Options {
	return &query.Options{RetryDelay: func(int) time.Duration { return 0 }}
}

// --- Tests ---

func TestCashFlow_BoundsChartSeries(t *testing.T) {
	api := &fakeDashboardAPI{metrics: dto.DashboardMetrics{
		Charts: map[string][]dto.ChartDataPoint{"cash_position": series(250)},
	}}
	svc := NewDashboardService(api, 0)
	c := query.NewClient()

	s := svc.CashFlow(helpers.TestCtx(), c, dto.PeriodYTD, nil, nil)
	if !s.IsSuccess || s.Data == nil {
		t.Fatalf("expected success, got %+v", s)
	}
	got := s.Data.Charts["cash_position"]
	if len(got) > 100 {
		t.Errorf("expected at most 100 points, got %d", len(got))
	}
	if got[0].Period != "d000" {
		t.Errorf("expected first point kept, got %+v", got[0])
	}
	if api.lastType != dto.DashboardCashFlow || api.lastPeriod != dto.PeriodYTD || api.lastFileID != nil {
		t.Errorf("unexpected upstream call %s %s %v", api.lastType, api.lastPeriod, api.lastFileID)
	}

	cached, ok := svc.Cached(c, dto.DashboardCashFlow, dto.PeriodYTD, nil)
	if !ok || len(cached.Charts["cash_position"]) != len(got) {
		t.Error("expected the bounded series to be what is cached")
	}
	if len(api.metrics.Charts["cash_position"]) != 250 {
		t.Error("upstream response must not be modified")
	}
}

func TestDashboard_AuthErrorNotRetried(t *testing.T) {
	api := &fakeDashboardAPI{metricsErr: errs.NewHTTPError(http.StatusUnauthorized, "token expired", nil)}
	svc := NewDashboardService(api, 0)

	s := svc.PL(helpers.TestCtx(), query.NewClient(), dto.PeriodQTD, nil, noRetryWait())
	if !s.IsError || s.IsSuccess {
		t.Fatalf("expected error state, got %+v", s)
	}
	if s.Error.Code != "401" || s.Error.Message != "token expired" {
		t.Errorf("unexpected error %+v", s.Error)
	}
	if api.callCount() != 1 {
		t.Errorf("expected 1 call, got %d", api.callCount())
	}
}

func TestDashboard_ServerErrorRetried(t *testing.T) {
	api := &fakeDashboardAPI{metricsErr: errs.NewHTTPError(http.StatusInternalServerError, "", nil)}
	svc := NewDashboardService(api, 0)

	s := svc.BalanceSheet(helpers.TestCtx(), query.NewClient(), dto.PeriodMTD, helpers.Ptr[int64](4), noRetryWait())
	if !s.IsError {
		t.Fatalf("expected error state, got %+v", s)
	}
	if s.Error.Code != "500" || s.Error.Message == "" {
		t.Errorf("expected generic message with code 500, got %+v", s.Error)
	}
	if api.callCount() != 4 {
		t.Errorf("expected 4 calls, got %d", api.callCount())
	}
}

func TestDashboard_NetworkErrorMessage(t *testing.T) {
	api := &fakeDashboardAPI{metricsErr: errs.NewExternalServiceError("dashboard-api", true, errors.New("connection refused"))}
	svc := NewDashboardService(api, 0)

	s := svc.Ratios(helpers.TestCtx(), query.NewClient(), dto.PeriodMTD, nil, &query.Options{
		Retry: helpers.Ptr(0),
	})
	if !s.IsError || s.Error.Code != "network_error" {
		t.Errorf("expected network error, got %+v", s.Error)
	}
}

func TestDashboard_DefaultPolicyRefetchesOnEachCall(t *testing.T) {
	api := &fakeDashboardAPI{metrics: dto.DashboardMetrics{}}
	svc := NewDashboardService(api, 0)
	c := query.NewClient()

	svc.KPIs(helpers.TestCtx(), c, dto.PeriodMTD, nil, nil)
	svc.KPIs(helpers.TestCtx(), c, dto.PeriodMTD, nil, nil)
	if api.callCount() != 2 {
		t.Errorf("refetchOnMount=always should refetch, got %d calls", api.callCount())
	}

	svc.KPIs(helpers.TestCtx(), c, dto.PeriodMTD, nil, &query.Options{RefetchOnMount: query.RefetchIfStale})
	if api.callCount() != 2 {
		t.Errorf("fresh data should be served from cache, got %d calls", api.callCount())
	}
}

func TestDashboard_FileIDZeroIsDistinct(t *testing.T) {
	api := &fakeDashboardAPI{metrics: dto.DashboardMetrics{}}
	svc := NewDashboardService(api, 0)
	c := query.NewClient()
	opts := &query.Options{RefetchOnMount: query.RefetchIfStale}

	svc.Variance(helpers.TestCtx(), c, dto.PeriodYTD, nil, opts)
	svc.Variance(helpers.TestCtx(), c, dto.PeriodYTD, helpers.Ptr[int64](0), opts)
	if api.callCount() != 2 {
		t.Errorf("expected separate fetches for no file and file 0, got %d", api.callCount())
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 cache entries, got %d", c.Len())
	}
}

func TestPrefetchAndStaleness(t *testing.T) {
	api := &fakeDashboardAPI{metrics: dto.DashboardMetrics{}}
	svc := NewDashboardService(api, 0)
	c := query.NewClient()

	if !svc.IsStale(c, dto.DashboardPL, dto.PeriodYTD, nil) {
		t.Fatal("expected stale before prefetch")
	}
	svc.Prefetch(helpers.TestCtx(), c, dto.DashboardPL, dto.PeriodYTD, nil)
	if svc.IsStale(c, dto.DashboardPL, dto.PeriodYTD, nil) {
		t.Fatal("expected fresh after prefetch")
	}
	svc.Cleanup(c)
	if !svc.IsStale(c, dto.DashboardPL, dto.PeriodYTD, nil) {
		t.Fatal("expected stale after cleanup")
	}
}

func TestRefresh(t *testing.T) {
	api := &fakeDashboardAPI{metrics: dto.DashboardMetrics{}}
	svc := NewDashboardService(api, 0)
	c := query.NewClient()
	svc.Prefetch(helpers.TestCtx(), c, dto.DashboardCashFlow, dto.PeriodYTD, nil)

	if err := svc.Refresh(helpers.TestCtx(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.refreshes != 1 {
		t.Errorf("expected upstream refresh, got %d", api.refreshes)
	}
	if api.callCount() != 2 {
		t.Errorf("expected cached dashboard refetched after refresh, got %d calls", api.callCount())
	}
}

func TestRefresh_UpstreamError(t *testing.T) {
	api := &fakeDashboardAPI{refreshErr: errs.NewHTTPError(http.StatusForbidden, "admin only", nil)}
	svc := NewDashboardService(api, 0)

	err := svc.Refresh(helpers.TestCtx(), query.NewClient())
	var de *errs.DashboardError
	if !errors.As(err, &de) || de.Code != "403" {
		t.Fatalf("expected DashboardError 403, got %T: %v", err, err)
	}
}
