package gifrank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, extra ...Option) (*Client, *mockProvider) {
	t.Helper()
	provider := &mockProvider{
		results: map[string][]string{
			"congrats":  {"a", "b"},
			"celebrate": {"b", "c"},
			"hello":     {"c"},
		},
		trending: []string{"t1", "t2", "t3"},
	}
	opts := []Option{
		WithProvider(provider),
		WithEmbedding("", "", "test-clip", 2),
		WithEmbedders(
			&mockText{vec: []float32{1, 0}},
			&mockMedia{vectors: map[string][]float32{
				"a": {0, 1},
				"b": {0.8, 0.6},
				"c": {1, 0},
			}},
		),
		WithThrottle(-1, 0),
	}
	c, err := New(append(opts, extra...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c, provider
}

func TestNew_NoGiphyKey(t *testing.T) {
	_, err := New()
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(WithGiphy("key"), optionFunc(func(c *clientConfig) { c.cfg.Cache.Driver = "etcd" }))
	if err == nil {
		t.Fatal("expected error for unknown cache driver")
	}
}

func TestClient_Rank(t *testing.T) {
	c, _ := newTestClient(t)

	res, err := c.Rank("so proud of you").Terms("congrats", "celebrate").TopK(2).Do(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if res.Outcome != OutcomeRanked {
		t.Fatalf("outcome = %q, want ranked", res.Outcome)
	}
	if got := strings.Join(res.URLs(), ","); got != "c,b" {
		t.Errorf("urls = %s, want c,b", got)
	}
	if res.Candidates != 3 {
		t.Errorf("candidates = %d, want 3", res.Candidates)
	}
	if res.Items[0].Score < res.Items[1].Score {
		t.Errorf("scores not descending: %v", res.Items)
	}
}

func TestClient_Rank_InvalidQuery(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Rank("   ").Do(context.Background())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestClient_Rank_NonPositiveTopK(t *testing.T) {
	c, p := newTestClient(t)

	for _, k := range []int{0, -3} {
		if _, err := c.Rank("hello").TopK(k).Do(context.Background()); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("TopK(%d): err = %v, want ErrInvalidInput", k, err)
		}
		if _, err := c.Suggest(context.Background(), "hello", k); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Suggest topK=%d: err = %v, want ErrInvalidInput", k, err)
		}
	}
	if p.calls != 0 {
		t.Errorf("provider calls = %d, want 0", p.calls)
	}
}

func TestClient_Rank_DefaultTopK(t *testing.T) {
	c, _ := newTestClient(t)

	res, err := c.Rank("so proud of you").Terms("congrats", "celebrate").Do(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(res.Items) != 3 {
		t.Errorf("items = %d, want all 3 candidates under the default of %d", len(res.Items), DefaultTopK)
	}
}

func TestClient_Rank_FailedCandidatesCounted(t *testing.T) {
	c, _ := newTestClient(t, WithEmbedders(nil, &mockMedia{vectors: map[string][]float32{"a": {0, 1}}}))

	res, err := c.Rank("hi").Terms("congrats", "celebrate").Do(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if res.Failed != 2 {
		t.Errorf("failed = %d, want 2", res.Failed)
	}
	if len(res.Items) != 1 || res.Items[0].URL != "a" {
		t.Errorf("items = %v, want [a]", res.Items)
	}
}

func TestClient_Rank_UnrankedFallback(t *testing.T) {
	c, _ := newTestClient(t, WithEmbedders(&mockText{err: errors.New("down")}, nil))

	res, err := c.Rank("hi").Terms("congrats").Do(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if res.Outcome != OutcomeUnranked || res.Reason != ReasonEmbeddingUnavailable {
		t.Fatalf("got %q/%q, want unranked/embedding_unavailable", res.Outcome, res.Reason)
	}
	for _, it := range res.Items {
		if it.Score != UnrankedScore {
			t.Errorf("score = %v, want UnrankedScore", it.Score)
		}
	}
}

func TestClient_Rank_FallbackDisabled(t *testing.T) {
	c, _ := newTestClient(t,
		WithEmbedders(&mockText{err: errors.New("down")}, nil),
		WithUnrankedFallback(false),
	)

	res, err := c.Rank("hi").Terms("congrats").Do(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if res.Outcome != OutcomeEmpty || len(res.Items) != 0 {
		t.Errorf("got %q with %d items, want empty", res.Outcome, len(res.Items))
	}
}

func TestClient_Rank_NoCandidates(t *testing.T) {
	c, _ := newTestClient(t)

	res, err := c.Rank("nothing matches").Do(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if res.Outcome != OutcomeEmpty || res.Reason != ReasonNoCandidates {
		t.Errorf("got %q/%q, want empty/no_candidates", res.Outcome, res.Reason)
	}
}

func TestClient_Suggest(t *testing.T) {
	c, _ := newTestClient(t)

	s, err := c.Suggest(context.Background(), "hello", 1)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if s.Query != "hello" {
		t.Errorf("query = %q, want hello", s.Query)
	}
	if len(s.Terms) == 0 || s.Terms[0] != "hello" {
		t.Errorf("terms = %v, want query first", s.Terms)
	}
	if got := s.Result.URLs(); len(got) != 1 || got[0] != "c" {
		t.Errorf("urls = %v, want [c]", got)
	}
}

func TestClient_Terms(t *testing.T) {
	c, _ := newTestClient(t)

	terms, err := c.Terms(context.Background(), "Why would you do that?!")
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if len(terms) == 0 || len(terms) > 5 {
		t.Errorf("terms = %v, want 1..5", terms)
	}

	if _, err := c.Terms(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty message err = %v, want ErrInvalidInput", err)
	}
}

func TestClient_Trending(t *testing.T) {
	c, p := newTestClient(t)

	if got := c.Trending(context.Background(), 2); strings.Join(got, ",") != "t1,t2" {
		t.Errorf("trending = %v", got)
	}

	p.err = errors.New("boom")
	c2, _ := newTestClient(t, WithProvider(p))
	if got := c2.Trending(context.Background(), 2); len(got) != 0 {
		t.Errorf("trending on failure = %v, want empty", got)
	}
}

func TestClient_SearchResultsCached(t *testing.T) {
	c, p := newTestClient(t)

	for range 3 {
		if _, err := c.Rank("hi").Terms("congrats").Do(context.Background()); err != nil {
			t.Fatalf("Rank: %v", err)
		}
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls)
	}
}

func TestClient_Health(t *testing.T) {
	c, _ := newTestClient(t)

	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("status = %q, want ok", h.Status)
	}
	if h.Checks["cache"] != "ok" {
		t.Errorf("cache check = %q", h.Checks["cache"])
	}
}

func TestClient_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, _ := newTestClient(t, WithPrometheus(reg))

	if _, err := c.Rank("hi").Terms("congrats").Do(context.Background()); err != nil {
		t.Fatalf("Rank: %v", err)
	}
	_, _ = c.Terms(context.Background(), "")

	count, err := testutil.GatherAndCount(reg, "gifrank_sdk_operations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Errorf("series = %d, want 2 (rank ok, terms error)", count)
	}

	// A second client on the same registry reuses the collectors.
	c2, err := New(WithProvider(&mockProvider{}), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("second client: %v", err)
	}
	c2.Close()
}

func TestClientOptions(t *testing.T) {
	cc := &clientConfig{}
	WithRedisCache("localhost:6379", "secret").apply(cc)
	if cc.cfg.Cache.Driver != "redis" || cc.cfg.Cache.Addrs[0] != "localhost:6379" || cc.cfg.Cache.Password != "secret" {
		t.Errorf("redis cache = %+v", cc.cfg.Cache)
	}

	WithoutCache().apply(cc)
	if cc.cfg.Cache.Driver != "none" {
		t.Errorf("driver = %q, want none", cc.cfg.Cache.Driver)
	}

	WithThrottle(-5, 0).apply(cc)
	if cc.cfg.Gateway.MinIntervalMs != -1 {
		t.Errorf("min interval = %d, want -1", cc.cfg.Gateway.MinIntervalMs)
	}

	WithChat("", "k", "gpt-4o-mini").apply(cc)
	if !cc.cfg.Terms.LLMEnabled || !cc.cfg.Terms.ReplyEnabled {
		t.Error("chat should enable terms and replies")
	}

	WithUnrankedFallback(false).apply(cc)
	if *cc.cfg.Ranking.UnrankedFallback {
		t.Error("fallback should be disabled")
	}
}

func TestTextAdapter_Error(t *testing.T) {
	a := &textAdapter{inner: &mockText{err: errors.New("provider down")}}
	if _, err := a.EmbedText(context.Background(), "x"); err == nil {
		t.Fatal("expected error from adapter")
	}
}
