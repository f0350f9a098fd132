// Package gateway throttles outbound search-provider calls and caches their results.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

// Defaults.
const (
	DefaultTTL         = 300 * time.Second
	DefaultMinInterval = 100 * time.Millisecond
	DefaultMaxEntries  = 4096
)

// RequestFunc performs one outbound provider call.
type RequestFunc func(ctx context.Context) ([]string, error)

// Config tunes the gateway.
type Config struct {
	TTL         time.Duration
	MinInterval time.Duration // <= 0 disables throttling
	MaxEntries  int
}

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
}

// Gateway enforces a global minimum interval between outbound calls and serves
// fresh results from a TTL cache. Safe for concurrent use.
type Gateway struct {
	cache   *expirable.LRU[string, []string]
	limiter *rate.Limiter
	flight  singleflight.Group
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]*sharedCall

	cacheTotal   *prometheus.CounterVec
	throttleWait prometheus.Observer
}

// New creates a gateway.
func New(cfg Config, logger *zap.Logger) *Gateway {
	cfg.applyDefaults()
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		cache:   expirable.NewLRU[string, []string](cfg.MaxEntries, nil, cfg.TTL),
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		inflight: make(map[string]*sharedCall),
	}
}

// sharedCall is the context of one collapsed provider call. It keeps the values of
// the caller that started it and is cancelled only when every waiting caller has left.
type sharedCall struct {
	ctx    context.Context
	cancel context.CancelFunc
	refs   int
}

func (g *Gateway) join(ctx context.Context, key string) *sharedCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	sc, ok := g.inflight[key]
	if !ok {
		sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		sc = &sharedCall{ctx: sctx, cancel: cancel}
		g.inflight[key] = sc
	}
	sc.refs++
	return sc
}

func (g *Gateway) leave(key string, sc *sharedCall) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sc.refs--
	if sc.refs > 0 {
		return
	}
	if g.inflight[key] == sc {
		delete(g.inflight, key)
		// An abandoned call must not be joined by later callers.
		g.flight.Forget(key)
	}
	sc.cancel()
}

// WithMetrics enables cache and throttle metrics.
func (g *Gateway) WithMetrics(cacheTotal *prometheus.CounterVec, throttleWait prometheus.Observer) *Gateway {
	g.cacheTotal = cacheTotal
	g.throttleWait = throttleWait
	return g
}

// Execute returns the cached payload for key or performs fn under the throttle.
// Concurrent misses on the same key share one call. Only successful results are cached.
// Cancelling ctx returns this caller early; the shared call keeps running while any
// other caller still waits on it.
func (g *Gateway) Execute(ctx context.Context, key string, fn RequestFunc) ([]string, error) {
	if v, ok := g.cache.Get(key); ok {
		g.count("hit")
		return slices.Clone(v), nil
	}

	sc := g.join(ctx, key)
	defer g.leave(key, sc)

	ch := g.flight.DoChan(key, func() (any, error) {
		// Another caller may have filled the cache while we queued on the group.
		if v, ok := g.cache.Get(key); ok {
			return v, nil
		}
		g.count("miss")
		if err := g.wait(sc.ctx); err != nil {
			return nil, err
		}
		res, err := fn(sc.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				g.logger.Debug("Provider rate limited, result not cached", zap.String("key", key))
			}
			return nil, err
		}
		if res == nil {
			res = []string{}
		}
		g.cache.Add(key, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("gateway %s: %w", key, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("gateway %s: %w", key, r.Err)
		}
		if r.Shared {
			g.count("shared")
		}
		return slices.Clone(r.Val.([]string)), nil
	}
}

// Len returns the number of live cache entries.
func (g *Gateway) Len() int { return g.cache.Len() }

// Purge drops every cached entry.
func (g *Gateway) Purge() { g.cache.Purge() }

func (g *Gateway) wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if g.throttleWait != nil {
		g.throttleWait.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (g *Gateway) count(result string) {
	if g.cacheTotal != nil {
		g.cacheTotal.WithLabelValues(result).Inc()
	}
}
