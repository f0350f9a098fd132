// Package giphy is the Giphy REST adapter used as the keyword search provider.
package giphy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/metrics"
)

// Defaults matching the public Giphy API.
const (
	DefaultBaseURL   = "https://api.giphy.com"
	DefaultRating    = "pg"
	DefaultLang      = "en"
	DefaultRendition = "fixed_height_small"
	DefaultTimeout   = 5 * time.Second

	providerName    = "giphy"
	maxErrorBodyLen = 4 << 10
)

// Config configures the Giphy client.
type Config struct {
	APIKey     string
	BaseURL    string
	Rating     string
	Lang       string
	Rendition  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the Giphy search and trending endpoints.
type Client struct {
	apiKey    string
	baseURL   string
	rating    string
	lang      string
	rendition string
	http      *http.Client
	logger    *zap.Logger
}

// New creates a Giphy client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("giphy api key is required: %w", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Rating == "" {
		cfg.Rating = DefaultRating
	}
	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.Rendition == "" {
		cfg.Rendition = DefaultRendition
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		rating:    cfg.Rating,
		lang:      cfg.Lang,
		rendition: cfg.Rendition,
		http:      hc,
		logger:    logger,
	}, nil
}

// Search returns GIF URLs for a keyword query, in provider relevance order.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("lang", c.lang)
	return c.list(ctx, "search", "/v1/gifs/search", q, limit)
}

// Trending returns currently trending GIF URLs.
func (c *Client) Trending(ctx context.Context, limit int) ([]string, error) {
	return c.list(ctx, "trending", "/v1/gifs/trending", url.Values{}, limit)
}

type listResponse struct {
	Data []gifObject `json:"data"`
	Meta meta        `json:"meta"`
}

type gifObject struct {
	ID     string               `json:"id"`
	Images map[string]rendition `json:"images"`
}

type rendition struct {
	URL string `json:"url"`
}

type meta struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

func (c *Client) list(ctx context.Context, op, path string, q url.Values, limit int) ([]string, error) {
	q.Set("api_key", c.apiKey)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("rating", c.rating)

	start := time.Now()
	urls, err := c.do(ctx, path, q)
	metrics.ProviderRequestDuration.WithLabelValues(providerName, op).Observe(time.Since(start).Seconds())
	metrics.ProviderRequestsTotal.WithLabelValues(providerName, op, statusLabel(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("giphy %s: %w", op, err)
	}
	c.logger.Debug("Giphy request completed",
		zap.String("operation", op),
		zap.Int("results", len(urls)),
		zap.Duration("duration", time.Since(start)),
	)
	return urls, nil
}

func (c *Client) do(ctx context.Context, path string, q url.Values) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", domain.ErrProviderError, err)
	}

	urls := make([]string, 0, len(out.Data))
	for _, g := range out.Data {
		if u := c.pickURL(g); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// pickURL selects the configured rendition, falling back to the original.
func (c *Client) pickURL(g gifObject) string {
	if r, ok := g.Images[c.rendition]; ok && r.URL != "" {
		return r.URL
	}
	if r, ok := g.Images["original"]; ok {
		return r.URL
	}
	return ""
}

func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Meta    meta   `json:"meta"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Meta.Msg != "" {
			return env.Meta.Msg
		}
	}
	return string(body)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err //nolint:wrapcheck // caller cancellation passes through untouched
	}
	// Timeouts, resets and DNS failures are all worth one retry.
	return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
}

func statusLabel(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr):
		return strconv.Itoa(apiErr.StatusCode)
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
