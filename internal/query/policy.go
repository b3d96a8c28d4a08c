package query

import (
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
)

const (
	DefaultStaleTime = 5 * time.Minute
	DefaultCacheTime = 10 * time.Minute
	DefaultRetry     = 3
	baseRetryDelay   = time.Second
	maxRetryDelay    = 30 * time.Second
)

// RefetchMode controls whether a mounting observer refetches existing data.
type RefetchMode string

const (
	RefetchAlways  RefetchMode = "always"
	RefetchIfStale RefetchMode = "true"
	RefetchNever   RefetchMode = "false"
)

// Options configures a single query. Zero values mean "not set" so that an
// override only shadows the fields it sets.
type Options struct {
	StaleTime            time.Duration
	CacheTime            time.Duration
	RefetchOnWindowFocus *bool
	RefetchOnMount       RefetchMode
	RefetchOnReconnect   *bool
	Retry                *int
	RetryDelay           func(attempt int) time.Duration
	ShouldRetry          func(failureCount int, err error) bool
}

// DefaultOptions is the policy shared by every dashboard query.
func DefaultOptions() Options {
	return Options{
		StaleTime:            DefaultStaleTime,
		CacheTime:            DefaultCacheTime,
		RefetchOnWindowFocus: helpers.Ptr(false),
		RefetchOnMount:       RefetchAlways,
		RefetchOnReconnect:   helpers.Ptr(true),
		Retry:                helpers.Ptr(DefaultRetry),
		RetryDelay:           RetryDelay,
		ShouldRetry:          ShouldRetry,
	}
}

// Merge returns base with every field set in override applied on top.
func Merge(base Options, override *Options) Options {
	if override == nil {
		return base
	}
	if override.StaleTime != 0 {
		base.StaleTime = override.StaleTime
	}
	if override.CacheTime != 0 {
		base.CacheTime = override.CacheTime
	}
	if override.RefetchOnWindowFocus != nil {
		base.RefetchOnWindowFocus = override.RefetchOnWindowFocus
	}
	if override.RefetchOnMount != "" {
		base.RefetchOnMount = override.RefetchOnMount
	}
	if override.RefetchOnReconnect != nil {
		base.RefetchOnReconnect = override.RefetchOnReconnect
	}
	if override.Retry != nil {
		base.Retry = override.Retry
	}
	if override.RetryDelay != nil {
		base.RetryDelay = override.RetryDelay
	}
	if override.ShouldRetry != nil {
		base.ShouldRetry = override.ShouldRetry
	}
	return base
}

// ShouldRetry retries any failure except 401 and 403. How many times is up
// to Options.Retry.
func ShouldRetry(_ int, err error) bool {
	return !errs.IsAuthError(err)
}

// RetryDelay is the wait before retry attempt n (1-indexed):
// min(1s * 2^(n-1), 30s).
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseRetryDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}

func (o Options) retries() int {
	if o.Retry == nil || *o.Retry < 0 {
		return 0
	}
	return *o.Retry
}

func (o Options) shouldRetry(failureCount int, err error) bool {
	if o.ShouldRetry == nil {
		return !errs.IsAuthError(err)
	}
	return o.ShouldRetry(failureCount, err)
}

func (o Options) retryDelay(attempt int) time.Duration {
	if o.RetryDelay == nil {
		return RetryDelay(attempt)
	}
	return o.RetryDelay(attempt)
}

func (o Options) refetchOnWindowFocus() bool {
	return helpers.Value(o.RefetchOnWindowFocus)
}

func (o Options) refetchOnReconnect() bool {
	return helpers.Value(o.RefetchOnReconnect)
}
