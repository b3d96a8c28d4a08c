// Package cachemgr invalidates, prefetches and inspects dashboard entries of
// an injected query cache by dashboard family.
package cachemgr

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/query"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// QueryCache is the subset of *query.Client the manager works with.
type QueryCache interface {
	Now() time.Time
	InvalidateQueries(ctx context.Context, prefix query.Key) error
	Prefetch(ctx context.Context, key query.Key, fn query.QueryFunc, opts query.Options)
	GetQueryData(key query.Key) (any, bool)
	GetQueryState(key query.Key) (query.EntryState, bool)
	Clear()
}

// InvalidateCache invalidates the given dashboard families, or every known
// family when none are given, and returns once all of them are done.
func InvalidateCache(ctx context.Context, c QueryCache, types ...dto.DashboardType) error {
	if len(types) == 0 {
		types = dto.AllDashboardTypes
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range types {
		prefix := query.BaseKey(t)
		g.Go(func() error {
			return c.InvalidateQueries(gctx, prefix)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("dashboard cache invalidated", "families", len(types))
	return nil
}

// PrefetchOptions is the default policy with retries turned off.
func PrefetchOptions() query.Options {
	return query.Merge(query.DefaultOptions(), &query.Options{Retry: new(int)})
}

// PrefetchDashboard warms the entry for (t, period, fileID). Failures are
// swallowed by the cache.
func PrefetchDashboard(ctx context.Context, c QueryCache, t dto.DashboardType, period dto.DashboardPeriod, fn query.QueryFunc, fileID *int64) {
	c.Prefetch(ctx, query.GetCacheKey(t, period, fileID), fn, PrefetchOptions())
}

// GetCachedData returns the cached value for (t, period, fileID) without
// touching the network. A miss or a value of another type reports false.
func GetCachedData[T any](c QueryCache, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) (T, bool) {
	var zero T
	data, ok := c.GetQueryData(query.GetCacheKey(t, period, fileID))
	if !ok {
		return zero, false
	}
	v, ok := data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// IsDataStale reports whether (t, period, fileID) has no data, has been
// invalidated, or was last fetched more than query.DefaultStaleTime ago.
func IsDataStale(c QueryCache, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) bool {
	st, ok := c.GetQueryState(query.GetCacheKey(t, period, fileID))
	if !ok || !st.HasData || st.Invalidated || st.DataUpdatedAt.IsZero() {
		return true
	}
	return c.Now().Sub(st.DataUpdatedAt) > query.DefaultStaleTime
}

// Cleanup clears the whole cache, dashboard entries or not.
func Cleanup(c QueryCache) {
	c.Clear()
}
