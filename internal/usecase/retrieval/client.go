// Package retrieval turns search terms into a deduplicated candidate list.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/logger"
)

// Defaults.
const (
	DefaultLimit          = 10
	DefaultMaxLimit       = 50
	DefaultRequestTimeout = 5 * time.Second
	DefaultMaxAttempts    = 2
	MaxBackoff            = 30 * time.Second
)

// BackoffPolicy returns the delay before retry number attempt (1-based).
type BackoffPolicy func(attempt int) time.Duration

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ClientConfig tunes the search client.
type ClientConfig struct {
	DefaultLimit   int
	MaxLimit       int
	RequestTimeout time.Duration
	MaxAttempts    int // total attempts including the first
}

func (c *ClientConfig) applyDefaults() {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = DefaultMaxLimit
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
}

// ExponentialBackoff doubles base per attempt, capped at MaxBackoff.
func ExponentialBackoff(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		if base <= 0 {
			return 0
		}
		d := base
		for i := 1; i < attempt && d < MaxBackoff; i++ {
			d *= 2
		}
		return min(d, MaxBackoff)
	}
}

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // context error passes through
	case <-t.C:
		return nil
	}
}

// Client runs keyword and trending queries through the gateway.
// Failures never propagate: callers get an empty result and the error is logged.
type Client struct {
	provider Provider
	gateway  Gateway
	cfg      ClientConfig
	backoff  BackoffPolicy
	sleep    Sleeper
	logger   *zap.Logger
}

// NewClient creates a search client.
func NewClient(provider Provider, gw Gateway, cfg ClientConfig, logger *zap.Logger) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: provider,
		gateway:  gw,
		cfg:      cfg,
		backoff:  ExponentialBackoff(250 * time.Millisecond),
		sleep:    SleepContext,
		logger:   logger,
	}
}

// WithBackoff overrides the retry policy and sleeper.
func (c *Client) WithBackoff(policy BackoffPolicy, sleep Sleeper) *Client {
	if policy != nil {
		c.backoff = policy
	}
	if sleep != nil {
		c.sleep = sleep
	}
	return c
}

// SearchByKeyword returns candidate URLs for term. Blank terms return nil without I/O.
func (c *Client) SearchByKeyword(ctx context.Context, term string, limit int) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	limit = c.clampLimit(limit)
	key := fmt.Sprintf("search:%s:%d", strings.ToLower(term), limit)
	return c.run(ctx, "search", key, func(ctx context.Context) ([]string, error) {
		return c.provider.Search(ctx, term, limit)
	}, zap.String("term", term))
}

// Trending returns currently trending GIF URLs.
func (c *Client) Trending(ctx context.Context, limit int) []string {
	limit = c.clampLimit(limit)
	key := fmt.Sprintf("trending:%d", limit)
	return c.run(ctx, "trending", key, func(ctx context.Context) ([]string, error) {
		return c.provider.Trending(ctx, limit)
	})
}

func (c *Client) clampLimit(limit int) int {
	if limit <= 0 {
		return c.cfg.DefaultLimit
	}
	return min(limit, c.cfg.MaxLimit)
}

func (c *Client) run(
	ctx context.Context, op, key string,
	call func(context.Context) ([]string, error),
	fields ...zap.Field,
) []string {
	log := logger.FromContextOr(ctx, c.logger)
	fn := func(ctx context.Context) ([]string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
		return call(callCtx)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		res, err := c.gateway.Execute(ctx, key, fn)
		if err == nil {
			return res
		}
		lastErr = err
		if ctx.Err() != nil || !isTransient(err) || attempt == c.cfg.MaxAttempts {
			break
		}
		delay := c.backoff(attempt)
		log.Debug("Retrying search after transient error",
			append(fields, zap.String("operation", op), zap.Int("attempt", attempt),
				zap.Duration("backoff", delay), zap.Error(err))...)
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	log.Warn("Search request failed, returning no candidates",
		append(fields, zap.String("operation", op), zap.Error(lastErr))...)
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrProviderUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
