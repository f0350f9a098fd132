package gifrank

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/gifrank/internal/app"
	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
)

// Client is the gifrank entry point. Safe for concurrent use.
type Client struct {
	engine *app.App
	obs    *observer
}

// New creates a Client. The Giphy key (or WithProvider) is required; the embedding
// endpoint defaults to an unauthenticated OpenAI-compatible server.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	cc.cfg.ApplyDefaults()

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	engine, err := app.Build(context.Background(), &cc.cfg, overridesFrom(cc), cc.logger)
	if err != nil {
		return nil, fmt.Errorf("gifrank: %w", err)
	}
	return &Client{engine: engine, obs: obs}, nil
}

func overridesFrom(cc *clientConfig) app.Overrides {
	ov := app.Overrides{HTTPClient: cc.httpClient}
	if cc.provider != nil {
		ov.Provider = cc.provider
	}
	if cc.text != nil {
		ov.Text = &textAdapter{inner: cc.text}
	}
	if cc.media != nil {
		ov.Media = &mediaAdapter{inner: cc.media}
	}
	return ov
}

// Close releases the embedding cache.
func (c *Client) Close() {
	if c.engine != nil {
		c.engine.Close()
	}
}

// Rank starts a ranking request for query. Terms default to the truncated query.
func (c *Client) Rank(query string) *RankBuilder {
	return &RankBuilder{client: c, query: query, topK: rank.DefaultTopK}
}

// Suggest drafts a reply to message (when WithChat is set) and ranks GIFs against it.
// topK must be positive; DefaultTopK is the usual choice.
func (c *Client) Suggest(ctx context.Context, message string, topK int) (Suggestion, error) {
	start := time.Now()
	res, err := c.engine.Suggest.Suggest(ctx, message, topK)
	c.obs.observe("suggest", start, err)
	if err != nil {
		return Suggestion{}, fmt.Errorf("suggest: %w", err)
	}
	return suggestionFromDomain(res), nil
}

// Terms generates search terms for a chat message.
func (c *Client) Terms(ctx context.Context, message string) ([]string, error) {
	start := time.Now()
	terms, err := c.engine.Terms.Generate(ctx, message)
	c.obs.observe("terms", start, err)
	if err != nil {
		return nil, fmt.Errorf("terms: %w", err)
	}
	return terms, nil
}

// Trending lists trending GIF URLs. Provider failures yield an empty list.
func (c *Client) Trending(ctx context.Context, limit int) []string {
	start := time.Now()
	urls := c.engine.Retrieval.Trending(ctx, limit)
	c.obs.observe("trending", start, nil)
	return urls
}

// Health checks the cache and embedding endpoint.
func (c *Client) Health(ctx context.Context) HealthReport {
	return healthFromDomain(c.engine.Health.Check(ctx))
}

func (c *Client) rank(ctx context.Context, req *rank.Request) (Result, error) {
	start := time.Now()
	res, err := c.engine.Ranking.Rank(ctx, req)
	c.obs.observe("rank", start, err)
	if err != nil {
		return Result{}, fmt.Errorf("rank: %w", err)
	}
	return resultFromDomain(res), nil
}

// textAdapter wraps a public TextEmbedder to satisfy domain.TextEmbedder.
type textAdapter struct {
	inner TextEmbedder
}

func (a *textAdapter) EmbedText(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.EmbedText(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// mediaAdapter wraps a public MediaEmbedder to satisfy domain.MediaEmbedder.
type mediaAdapter struct {
	inner MediaEmbedder
}

func (a *mediaAdapter) EmbedMedia(ctx context.Context, url string) (domain.EmbeddingResult, error) {
	r, err := a.inner.EmbedMedia(ctx, url)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed media: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
