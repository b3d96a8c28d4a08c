// Package session keeps one query cache per authenticated session so that
// cached dashboards never leak between users.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/GregMSThompson/finance-dashboard/internal/query"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const (
	DefaultMaxSessions = 1000
	DefaultSessionTTL  = 30 * time.Minute
)

// Registry maps session ids to their query cache. The number of sessions is
// bounded; the least recently used session is dropped first, and a session
// expires TTL after it was created.
type Registry struct {
	mu      sync.Mutex
	clients *expirable.LRU[string, *query.Client]
	opts    []query.ClientOption
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger, size int, ttl time.Duration, opts ...query.ClientOption) *Registry {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	r := &Registry{opts: opts, log: log}
	r.clients = expirable.NewLRU(size, r.onEvict, ttl)
	return r
}

// Get returns the cache for id, creating it on first use.
func (r *Registry) Get(ctx context.Context, id string) *query.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients.Get(id); ok {
		return c
	}
	c := query.NewClient(r.opts...)
	r.clients.Add(id, c)
	logger.FromContext(ctx).Debug("session cache created", "sessions", r.clients.Len())
	return c
}

// Peek returns the cache for id without creating one.
func (r *Registry) Peek(id string) (*query.Client, bool) {
	return r.clients.Peek(id)
}

// Remove clears and drops the cache for id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients.Remove(id)
}

func (r *Registry) Len() int {
	return r.clients.Len()
}

// Sweep garbage collects expired entries in every live session and returns
// how many were removed.
func (r *Registry) Sweep() int {
	n := 0
	for _, c := range r.clients.Values() {
		n += c.Sweep()
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("swept query caches", "removed", n, "sessions", r.Len())
			}
		}
	}
}

// Close drops every session.
func (r *Registry) Close() {
	r.clients.Purge()
}

func (r *Registry) onEvict(_ string, c *query.Client) {
	c.Clear()
}
