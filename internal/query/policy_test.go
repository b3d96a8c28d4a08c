package query

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.StaleTime != 5*time.Minute {
		t.Errorf("expected staleTime 5m, got %s", o.StaleTime)
	}
	if o.CacheTime != 10*time.Minute {
		t.Errorf("expected cacheTime 10m, got %s", o.CacheTime)
	}
	if o.refetchOnWindowFocus() {
		t.Error("expected refetchOnWindowFocus false")
	}
	if o.RefetchOnMount != RefetchAlways {
		t.Errorf("expected refetchOnMount always, got %q", o.RefetchOnMount)
	}
	if !o.refetchOnReconnect() {
		t.Error("expected refetchOnReconnect true")
	}
	if o.retries() != 3 {
		t.Errorf("expected 3 retries, got %d", o.retries())
	}
}

func TestRetryDelay(t *testing.T) {
	cases := map[int]time.Duration{
		1: time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		5: 16 * time.Second,
		6: 30 * time.Second,
		9: 30 * time.Second,
	}
	for attempt, want := range cases {
		if got := RetryDelay(attempt); got != want {
			t.Errorf("RetryDelay(%d) = %s, want %s", attempt, got, want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	unauthorized := errs.NewHTTPError(http.StatusUnauthorized, "", nil)
	forbidden := errs.NewHTTPError(http.StatusForbidden, "", nil)
	serverErr := errs.NewHTTPError(http.StatusInternalServerError, "", nil)

	if ShouldRetry(1, unauthorized) {
		t.Error("401 must not be retried")
	}
	if ShouldRetry(1, forbidden) {
		t.Error("403 must not be retried")
	}
	if ShouldRetry(1, errs.ToDashboardError(forbidden)) {
		t.Error("403 wrapped as DashboardError must not be retried")
	}
	if !ShouldRetry(3, serverErr) {
		t.Error("500 should be retried on the third failure")
	}
	if !ShouldRetry(6, serverErr) {
		t.Error("the failure count must not cap retries")
	}
	if !ShouldRetry(1, errors.New("network down")) {
		t.Error("plain errors should be retried")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultOptions()
	got := Merge(base, &Options{
		StaleTime:      time.Minute,
		RefetchOnMount: RefetchIfStale,
		Retry:          helpers.Ptr(0),
	})
	if got.StaleTime != time.Minute {
		t.Errorf("expected overridden staleTime, got %s", got.StaleTime)
	}
	if got.CacheTime != DefaultCacheTime {
		t.Errorf("expected default cacheTime kept, got %s", got.CacheTime)
	}
	if got.RefetchOnMount != RefetchIfStale {
		t.Errorf("expected overridden refetchOnMount, got %q", got.RefetchOnMount)
	}
	if got.retries() != 0 {
		t.Errorf("expected retry override 0, got %d", got.retries())
	}
	if !got.refetchOnReconnect() {
		t.Error("expected default refetchOnReconnect kept")
	}

	if same := Merge(base, nil); same.StaleTime != base.StaleTime {
		t.Error("nil override should return base")
	}
}
