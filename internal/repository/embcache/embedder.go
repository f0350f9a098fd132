package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/db"
	"github.com/kailas-cloud/gifrank/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb:"

// DefaultTTL bounds how long a cached vector is served.
const DefaultTTL = 24 * time.Hour

const (
	kindText  = "text"
	kindMedia = "media"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches text and media embeddings in a key-value store.
// Keys include the model name, so switching models never serves stale vectors.
type CachedEmbedder struct {
	text       domain.TextEmbedder
	media      domain.MediaEmbedder
	model      string
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. Either embedder may be nil if unused.
// cacheTotal is a counter vec with labels "kind" and "result" ("hit"/"miss"), passed explicitly.
func New(
	text domain.TextEmbedder,
	media domain.MediaEmbedder,
	model string,
	s store,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		text:       text,
		media:      media,
		model:      model,
		store:      s,
		ttl:        DefaultTTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithTTL overrides the cache entry lifetime.
func (c *CachedEmbedder) WithTTL(ttl time.Duration) *CachedEmbedder {
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// EmbedText returns a cached text embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if c.text == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("text embedder: %w", domain.ErrNotConfigured)
	}
	return c.cached(ctx, kindText, text, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return c.text.EmbedText(ctx, text)
	})
}

// EmbedMedia returns a cached media embedding keyed by URL or calls the inner embedder.
func (c *CachedEmbedder) EmbedMedia(ctx context.Context, url string) (domain.EmbeddingResult, error) {
	if c.media == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("media embedder: %w", domain.ErrNotConfigured)
	}
	return c.cached(ctx, kindMedia, url, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return c.media.EmbedMedia(ctx, url)
	})
}

func (c *CachedEmbedder) cached(
	ctx context.Context, kind, input string,
	call func(context.Context) (domain.EmbeddingResult, error),
) (domain.EmbeddingResult, error) {
	key := c.cacheKey(kind, input)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache(kind, "hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	c.incCache(kind, "miss")

	result, err := call(ctx)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", kind, err)
	}

	c.putToCache(ctx, key, result.Embedding)
	return result, nil
}

func (c *CachedEmbedder) incCache(kind, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(kind, result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(kind, input string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return cacheKeyPrefix + kind + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !domain.IsNormalized(vec) {
		c.logger.Warn("Cached embedding is not normalized, ignoring", zap.String("key", key))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
