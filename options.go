package gifrank

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg config.Config

	provider   SearchProvider
	text       TextEmbedder
	media      MediaEmbedder
	httpClient *http.Client

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithGiphy sets the Giphy API key. Required unless WithProvider is used.
func WithGiphy(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Giphy.APIKey = apiKey
	})
}

// WithGiphyEndpoint overrides the Giphy base URL, content rating and rendition.
// Empty values keep the defaults (https://api.giphy.com, "pg", "fixed_height_small").
func WithGiphyEndpoint(baseURL, rating, rendition string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Giphy.BaseURL = baseURL
		c.cfg.Giphy.Rating = rating
		c.cfg.Giphy.Rendition = rendition
	})
}

// WithProvider replaces the Giphy client with a custom search backend.
func WithProvider(p SearchProvider) Option {
	return optionFunc(func(c *clientConfig) {
		c.provider = p
	})
}

// WithEmbedding configures the OpenAI-compatible CLIP embedding endpoint used for
// both queries and GIF frames. Defaults: clip-vit-base-patch32, 512 dimensions.
func WithEmbedding(baseURL, apiKey, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.BaseURL = baseURL
		c.cfg.Embedding.APIKey = apiKey
		c.cfg.Embedding.Model = model
		c.cfg.Embedding.Dimensions = dimensions
	})
}

// WithQueryInstruction prepends text to every query before embedding ("a gif of ").
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.QueryInstruction = instruction
	})
}

// WithMaxFrames sets how many leading GIF frames are averaged into the media vector.
// Default: 5.
func WithMaxFrames(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.MaxFrames = n
	})
}

// WithEmbedders replaces the embedding endpoint with custom embedders.
// A nil embedder leaves that side unchanged.
func WithEmbedders(text TextEmbedder, media MediaEmbedder) Option {
	return optionFunc(func(c *clientConfig) {
		if text != nil {
			c.text = text
		}
		if media != nil {
			c.media = media
		}
	})
}

// WithMemoryCache caches embeddings in process (default).
func WithMemoryCache(maxEntries int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Cache.Driver = config.CacheDriverMemory
		c.cfg.Cache.MaxEntries = maxEntries
		c.cfg.Cache.TTLSec = int(ttl / time.Second)
	})
}

// WithRedisCache caches embeddings in Redis, shared between processes.
func WithRedisCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Cache.Driver = config.CacheDriverRedis
		c.cfg.Cache.Addrs = []string{addr}
		c.cfg.Cache.Password = password
	})
}

// WithoutCache disables the embedding cache.
func WithoutCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Cache.Driver = config.CacheDriverNone
	})
}

// WithThrottle sets the minimum spacing between provider calls and how long
// search results are reused. minInterval < 0 disables throttling.
// Defaults: 100ms, 5m.
func WithThrottle(minInterval, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Gateway.MinIntervalMs = int(minInterval / time.Millisecond)
		if minInterval < 0 {
			c.cfg.Gateway.MinIntervalMs = -1
		}
		c.cfg.Gateway.TTLSec = int(ttl / time.Second)
	})
}

// WithConcurrency bounds how many candidates are embedded at once. Default: 6.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Ranking.Concurrency = n
	})
}

// WithCandidateTimeout bounds a single candidate's fetch, decode and embed. Default: 15s.
func WithCandidateTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Ranking.CandidateTimeoutSec = int(d / time.Second)
	})
}

// WithUnrankedFallback controls whether a pipeline that cannot embed returns candidates
// in retrieval order (true, default) or an empty result.
func WithUnrankedFallback(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Ranking.UnrankedFallback = &enabled
	})
}

// WithChat enables LLM search terms and reply drafting through an OpenAI-compatible
// chat-completions endpoint. Empty baseURL or apiKey reuse the embedding endpoint's.
func WithChat(baseURL, apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Terms.LLMEnabled = true
		c.cfg.Terms.ReplyEnabled = true
		c.cfg.Terms.BaseURL = baseURL
		c.cfg.Terms.APIKey = apiKey
		c.cfg.Terms.Model = model
	})
}

// WithMaxTerms caps the number of generated search terms. Default: 5.
func WithMaxTerms(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Terms.MaxTerms = n
	})
}

// WithHTTPClient sets the HTTP client used for Giphy and GIF downloads.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
