package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/app"
	"github.com/kailas-cloud/gifrank/internal/config"
	"github.com/kailas-cloud/gifrank/internal/domain"
)

// --- Mocks ---

type stubProvider struct{}

func (stubProvider) Search(_ context.Context, term string, _ int) ([]string, error) {
	switch term {
	case "dance":
		return []string{"g1", "g2"}, nil
	case "party":
		return []string{"g2", "g3"}, nil
	}
	return nil, nil
}

func (stubProvider) Trending(_ context.Context, limit int) ([]string, error) {
	return []string{"t1", "t2", "t3"}[:min(limit, 3)], nil
}

type stubText struct{}

func (stubText) EmbedText(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

type stubMedia struct{}

func (stubMedia) EmbedMedia(_ context.Context, url string) (domain.EmbeddingResult, error) {
	switch url {
	case "g1":
		return domain.EmbeddingResult{Embedding: []float32{0, 1}}, nil
	case "g2":
		return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}
	return domain.EmbeddingResult{}, domain.ErrMediaFetch
}

// --- Helpers ---

func testBuild(_ context.Context, _ string) (*app.App, error) {
	cfg := &config.Config{}
	cfg.Giphy.APIKey = "test"
	cfg.Embedding.Dimensions = 2
	cfg.Gateway.MinIntervalMs = -1
	cfg.ApplyDefaults()
	return app.Build(context.Background(), cfg, app.Overrides{
		Provider: stubProvider{},
		Text:     stubText{},
		Media:    stubMedia{},
	}, zap.NewNop())
}

func run(t *testing.T, build BuildFunc, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(build)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env", "test"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// --- Tests ---

func TestRank_JSON(t *testing.T) {
	out, err := run(t, testBuild, "rank", "--json", "-t", "dance", "-t", "party", "-k", "2", "lets", "dance")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	var got rankOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Outcome != "ranked" {
		t.Errorf("outcome = %q, want ranked", got.Outcome)
	}
	if len(got.Items) != 2 || got.Items[0].URL != "g2" || got.Items[1].URL != "g1" {
		t.Errorf("items = %+v, want g2, g1", got.Items)
	}
	if got.Candidates != 3 || got.Failed != 1 {
		t.Errorf("candidates/failed = %d/%d, want 3/1", got.Candidates, got.Failed)
	}
}

func TestRank_Text(t *testing.T) {
	out, err := run(t, testBuild, "rank", "-t", "dance", "dance")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if !strings.HasPrefix(out, "ranked: 2 candidates, 0 failed\n") {
		t.Errorf("header = %q", out)
	}
	if !strings.Contains(out, " 1. 1.0000  g2") {
		t.Errorf("output missing top item:\n%s", out)
	}
}

func TestRank_RequiresQuery(t *testing.T) {
	if _, err := run(t, testBuild, "rank"); err == nil {
		t.Fatal("expected error without query")
	}
}

func TestRank_InvalidTopK(t *testing.T) {
	_, err := run(t, testBuild, "rank", "--top=-1", "dance")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuildError(t *testing.T) {
	boom := errors.New("no config")
	_, err := run(t, func(context.Context, string) (*app.App, error) { return nil, boom }, "trending")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want build error", err)
	}
}

func TestTrending(t *testing.T) {
	out, err := run(t, testBuild, "trending", "-n", "2")
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if out != "t1\nt2\n" {
		t.Errorf("out = %q", out)
	}
}

func TestTerms_Explain(t *testing.T) {
	out, err := run(t, testBuild, "terms", "--explain", "why", "would", "you", "do", "that?")
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	if !strings.Contains(out, "intent: question") {
		t.Errorf("output missing intent:\n%s", out)
	}
}

func TestSuggest_JSON(t *testing.T) {
	out, err := run(t, testBuild, "suggest", "--json", "dance")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	var got suggestOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Query != "dance" || got.Terms[0] != "dance" {
		t.Errorf("query/terms = %q/%v", got.Query, got.Terms)
	}
	if got.Outcome != "ranked" || got.Items[0].URL != "g2" {
		t.Errorf("result = %+v", got.rankOutput)
	}
}

func TestHealth_JSON(t *testing.T) {
	out, err := run(t, testBuild, "health", "--json")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %v, want ok", got["status"])
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, testBuild, "--version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "dev (commit unknown") {
		t.Errorf("out = %q", out)
	}
}
