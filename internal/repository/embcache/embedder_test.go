package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/db"
	"github.com/kailas-cloud/gifrank/internal/db/memory"
	"github.com/kailas-cloud/gifrank/internal/domain"
)

func TestEmbedText_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.6, 0.8},
		TotalTokens: 10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.EmbedText(context.Background(), "dancing cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, "gifrank:emb:text:") {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if setTTL != DefaultTTL {
		t.Errorf("expected ttl %v, got %v", DefaultTTL, setTTL)
	}
}

func TestEmbedMedia_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0, 1})
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if !strings.HasPrefix(key, "gifrank:emb:media:") {
			t.Errorf("unexpected key %q", key)
		}
		return cached, nil
	}

	result, err := ce.EmbedMedia(context.Background(), "https://media.giphy.com/a.gif")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[1] != 1 {
		t.Fatalf("expected cached vector, got %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Errorf("expected 0 tokens on hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("inner must not be called on hit, got %d", inner.calls)
	}
}

func TestEmbed_StoreErrorFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
	}
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		return errors.New("connection refused")
	}

	if _, err := ce.EmbedText(context.Background(), "x"); err != nil {
		t.Fatalf("store failures must not fail the embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner called once, got %d", inner.calls)
	}
}

func TestEmbed_CorruptOrUnnormalizedEntryIgnored(t *testing.T) {
	for name, data := range map[string][]byte{
		"corrupt":        {1, 2, 3},
		"not normalized": vectorToCacheBytes([]float32{3, 4}),
	} {
		t.Run(name, func(t *testing.T) {
			inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
			ce, ms := newTestCachedEmbedder(t, inner)
			ms.getFn = func(context.Context, string) ([]byte, error) { return data, nil }

			if _, err := ce.EmbedText(context.Background(), "x"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inner.calls != 1 {
				t.Errorf("expected inner fallback, got %d calls", inner.calls)
			}
		})
	}
}

func TestEmbed_InnerError(t *testing.T) {
	innerErr := errors.New("provider down")
	ce, ms := newTestCachedEmbedder(t, &mockEmbedder{err: innerErr})
	var setCalled bool
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		setCalled = true
		return nil
	}

	if _, err := ce.EmbedMedia(context.Background(), "u"); !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
	if setCalled {
		t.Error("errors must not be cached")
	}
}

func TestCacheKey_ModelAndKindScoped(t *testing.T) {
	a := New(nil, nil, "clip-a", &mockKVStore{}, nil, nil)
	b := New(nil, nil, "clip-b", &mockKVStore{}, nil, nil)

	if a.cacheKey(kindText, "x") == b.cacheKey(kindText, "x") {
		t.Error("different models must not share keys")
	}
	if a.cacheKey(kindText, "x") == a.cacheKey(kindMedia, "x") {
		t.Error("text and media must not share keys")
	}
}

func TestEmbed_WithMemoryStoreAndMetrics(t *testing.T) {
	cacheTotal := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_emb_cache_total"}, []string{"kind", "result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.6, 0.8}}}
	ce := New(inner, inner, "clip", memory.NewStore(100, time.Hour), cacheTotal, zap.NewNop()).WithTTL(time.Minute)

	for range 3 {
		if _, err := ce.EmbedText(context.Background(), "hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if v := testutil.ToFloat64(cacheTotal.WithLabelValues("text", "hit")); v != 2 {
		t.Errorf("expected 2 hits, got %v", v)
	}
	if v := testutil.ToFloat64(cacheTotal.WithLabelValues("text", "miss")); v != 1 {
		t.Errorf("expected 1 miss, got %v", v)
	}
}

func TestNotConfigured(t *testing.T) {
	ce := New(nil, nil, "clip", &mockKVStore{}, nil, nil)
	if _, err := ce.EmbedText(context.Background(), "x"); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
