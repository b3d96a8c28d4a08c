package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// QueryFunc loads the data for one cache entry.
type QueryFunc func(ctx context.Context) (any, error)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// EntryState is a point-in-time snapshot of a cache entry.
type EntryState struct {
	Key            Key
	Status         Status
	Data           any
	HasData        bool
	Err            error
	DataUpdatedAt  time.Time
	ErrorUpdatedAt time.Time
	Invalidated    bool
	FetchCount     int
}

type entry struct {
	state      EntryState
	fn         QueryFunc
	opts       Options
	lastAccess time.Time
}

// Client is an in-memory query cache. Concurrent loads of the same key share
// a single call of the query function; the last settled result wins.
//
// Client is safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	entries map[string]*entry
	flight  singleflight.Group
	now     func() time.Time
	metrics Metrics
}

type ClientOption func(*Client)

// WithClock replaces time.Now for staleness and garbage collection decisions.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

func WithMetrics(m Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		entries: make(map[string]*entry),
		now:     time.Now,
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the client's notion of the current time.
func (c *Client) Now() time.Time {
	return c.now()
}

// Fetch returns cached data when it is fresh, otherwise loads it with fn.
func (c *Client) Fetch(ctx context.Context, key Key, fn QueryFunc, opts Options) (any, error) {
	return c.load(ctx, key, fn, opts, false)
}

// Observe is Fetch for a newly mounted observer: opts.RefetchOnMount decides
// whether existing data is reused.
func (c *Client) Observe(ctx context.Context, key Key, fn QueryFunc, opts Options) (any, error) {
	return c.load(ctx, key, fn, opts, true)
}

// Prefetch warms the cache for key. Failures are logged and dropped.
func (c *Client) Prefetch(ctx context.Context, key Key, fn QueryFunc, opts Options) {
	if _, err := c.Fetch(ctx, key, fn, opts); err != nil {
		logger.FromContext(ctx).Warn("prefetch failed", "key", key.String(), "error", err)
	}
}

func (c *Client) load(ctx context.Context, key Key, fn QueryFunc, opts Options, mount bool) (any, error) {
	if data, ok := c.cached(key, fn, opts, mount); ok {
		c.metrics.CacheHit(family(key))
		return data, nil
	}
	c.metrics.CacheMiss(family(key))
	return c.execute(ctx, key, fn, opts)
}

// cached returns fresh data for key. A mounting observer that is served from
// the cache takes over the entry's query function and policy.
func (c *Client) cached(key Key, fn QueryFunc, opts Options, mount bool) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := c.lookupLocked(key, now)
	if e == nil || !e.state.HasData {
		return nil, false
	}
	e.lastAccess = now
	if e.state.Invalidated {
		return nil, false
	}
	if mount {
		e.fn = fn
		e.opts = opts
		switch opts.RefetchOnMount {
		case RefetchAlways:
			return nil, false
		case RefetchNever:
			return e.state.Data, true
		}
	}
	if isStale(e.state, opts.StaleTime, now) {
		return nil, false
	}
	return e.state.Data, true
}

// execute runs fn for key, joining an in-flight call for the same key when
// there is one. The query runs detached from ctx cancellation so that one
// caller going away does not fail the others.
func (c *Client) execute(ctx context.Context, key Key, fn QueryFunc, opts Options) (any, error) {
	log := logger.FromContext(ctx)

	data, err, shared := c.flight.Do(key.String(), func() (any, error) {
		e := c.begin(key, fn, opts)
		start := time.Now()
		data, err := runWithRetry(context.WithoutCancel(ctx), fn, opts, func(err error, wait time.Duration) {
			log.Debug("retrying query", "key", key.String(), "wait", wait, "error", err)
		})
		c.metrics.FetchDone(family(key), time.Since(start), err)
		c.settle(key, e, data, err)
		return data, err
	})
	if shared {
		log.Debug("joined in-flight query", "key", key.String())
	}
	return data, err
}

func (c *Client) begin(key Key, fn QueryFunc, opts Options) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{state: EntryState{Key: append(Key(nil), key...)}}
		c.entries[ks] = e
	}
	e.fn = fn
	e.opts = opts
	e.state.Status = StatusLoading
	e.state.FetchCount++
	e.lastAccess = c.now()
	return e
}

// settle records the outcome of a fetch. Results for entries removed while
// the fetch was in flight are discarded.
func (c *Client) settle(key Key, e *entry, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key.String()] != e {
		return
	}
	now := c.now()
	e.lastAccess = now
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = err
		e.state.ErrorUpdatedAt = now
		return
	}
	e.state.Status = StatusSuccess
	e.state.Data = data
	e.state.HasData = true
	e.state.Err = nil
	e.state.DataUpdatedAt = now
	e.state.Invalidated = false
}

// GetQueryData reads cached data for key without loading or touching it.
func (c *Client) GetQueryData(key Key) (any, bool) {
	st, ok := c.GetQueryState(key)
	if !ok || !st.HasData {
		return nil, false
	}
	return st.Data, true
}

// GetQueryState returns a snapshot of the entry for key.
func (c *Client) GetQueryState(key Key) (EntryState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key.String()]
	if !ok || c.expired(e, c.now()) {
		return EntryState{}, false
	}
	return e.state, true
}

// SetQueryData writes data for key as if it had just been fetched. New
// entries get the default policy so they are garbage collected.
func (c *Client) SetQueryData(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{state: EntryState{Key: append(Key(nil), key...)}, opts: DefaultOptions()}
		c.entries[ks] = e
	}
	now := c.now()
	e.state.Status = StatusSuccess
	e.state.Data = data
	e.state.HasData = true
	e.state.Err = nil
	e.state.DataUpdatedAt = now
	e.state.Invalidated = false
	e.lastAccess = now
}

type refetchJob struct {
	key  Key
	fn   QueryFunc
	opts Options
}

// InvalidateQueries marks every entry under prefix as invalidated and
// refetches those that were loaded through a query function. It returns once
// the refetches have settled; refetch failures are recorded on the entries.
func (c *Client) InvalidateQueries(ctx context.Context, prefix Key) error {
	c.mu.Lock()
	now := c.now()
	var jobs []refetchJob
	for ks, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, ks)
			continue
		}
		if !e.state.Key.HasPrefix(prefix) {
			continue
		}
		e.state.Invalidated = true
		if e.fn != nil {
			jobs = append(jobs, refetchJob{key: e.state.Key, fn: e.fn, opts: e.opts})
		}
	}
	c.mu.Unlock()

	logger.FromContext(ctx).Debug("invalidated queries", "prefix", prefix.String(), "refetch", len(jobs))
	return c.refetch(ctx, jobs)
}

// WindowFocused refetches stale entries whose options enable refetch on focus.
func (c *Client) WindowFocused(ctx context.Context) error {
	return c.refetch(ctx, c.staleJobs(Options.refetchOnWindowFocus))
}

// Reconnected refetches stale entries whose options enable refetch on reconnect.
func (c *Client) Reconnected(ctx context.Context) error {
	return c.refetch(ctx, c.staleJobs(Options.refetchOnReconnect))
}

func (c *Client) staleJobs(enabled func(Options) bool) []refetchJob {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	var jobs []refetchJob
	for _, e := range c.entries {
		if e.fn == nil || c.expired(e, now) || !enabled(e.opts) {
			continue
		}
		if e.state.Invalidated || isStale(e.state, e.opts.StaleTime, now) {
			jobs = append(jobs, refetchJob{key: e.state.Key, fn: e.fn, opts: e.opts})
		}
	}
	return jobs
}

func (c *Client) refetch(ctx context.Context, jobs []refetchJob) error {
	log := logger.FromContext(ctx)
	var g errgroup.Group
	for _, j := range jobs {
		g.Go(func() error {
			if _, err := c.execute(ctx, j.key, j.fn, j.opts); err != nil {
				log.Warn("refetch failed", "key", j.key.String(), "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// RemoveQueries drops every entry under prefix and returns how many were
// removed. Loads in flight for those keys are detached; later calls start
// fresh ones.
func (c *Client) RemoveQueries(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for ks, e := range c.entries {
		if e.state.Key.HasPrefix(prefix) {
			delete(c.entries, ks)
			c.flight.Forget(ks)
			n++
		}
	}
	return n
}

// Clear drops every entry and detaches loads in flight.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ks := range c.entries {
		c.flight.Forget(ks)
	}
	c.entries = make(map[string]*entry)
}

// Sweep garbage collects entries unused for longer than their cache time.
func (c *Client) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for ks, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, ks)
			n++
		}
	}
	return n
}

func (c *Client) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Client) lookupLocked(key Key, now time.Time) *entry {
	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		return nil
	}
	if c.expired(e, now) {
		delete(c.entries, ks)
		return nil
	}
	return e
}

func (c *Client) expired(e *entry, now time.Time) bool {
	if e.state.Status == StatusLoading || e.opts.CacheTime <= 0 {
		return false
	}
	return now.Sub(e.lastAccess) > e.opts.CacheTime
}

func isStale(st EntryState, staleTime time.Duration, now time.Time) bool {
	if !st.HasData || st.Invalidated {
		return true
	}
	return now.Sub(st.DataUpdatedAt) > staleTime
}

func family(key Key) string {
	if len(key) == 0 {
		return ""
	}
	return key[0]
}
