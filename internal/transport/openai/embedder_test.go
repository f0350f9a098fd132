package openai

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// openaiEmbeddingResponse mirrors the OpenAI-compatible API embedding response.
type openaiEmbeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func embeddingServer(t *testing.T, check func(body map[string]any), data ...embeddingData) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if check != nil {
			check(body)
		}

		resp := openaiEmbeddingResponse{Object: "list", Model: "clip", Data: data}
		resp.Usage.PromptTokens = 7
		resp.Usage.TotalTokens = 7
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbedder(url string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "clip",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestEmbedder_EmbedTextNormalizes(t *testing.T) {
	srv := embeddingServer(t, func(body map[string]any) {
		input, _ := body["input"].([]any)
		if len(input) != 1 || input[0] != "dancing cat" {
			t.Errorf("unexpected input %v", body["input"])
		}
	}, embeddingData{Object: "embedding", Embedding: []float32{3, 4}})

	result, err := newTestEmbedder(srv.URL).EmbedText(context.Background(), "dancing cat")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if math.Abs(float64(result.Embedding[0])-0.6) > 1e-6 || math.Abs(float64(result.Embedding[1])-0.8) > 1e-6 {
		t.Errorf("expected normalized [0.6 0.8], got %v", result.Embedding)
	}
	if result.PromptTokens != 7 || result.TotalTokens != 7 {
		t.Errorf("unexpected usage %+v", result)
	}
}

func TestEmbedder_EmbedImagesOrderAndPayload(t *testing.T) {
	srv := embeddingServer(t, func(body map[string]any) {
		input, _ := body["input"].([]any)
		if len(input) != 2 {
			t.Errorf("expected 2 inputs, got %v", len(input))
			return
		}
		obj, _ := input[0].(map[string]any)
		uri, _ := obj["image"].(string)
		if !strings.HasPrefix(uri, "data:image/png;base64,") {
			t.Errorf("expected png data uri, got %.40q", uri)
		}
	},
		embeddingData{Object: "embedding", Embedding: []float32{0, 2}, Index: 1},
		embeddingData{Object: "embedding", Embedding: []float32{2, 0}, Index: 0},
	)

	frames := []image.Image{image.NewRGBA(image.Rect(0, 0, 2, 2)), image.NewRGBA(image.Rect(0, 0, 2, 2))}
	res, err := newTestEmbedder(srv.URL).EmbedImages(context.Background(), frames)
	if err != nil {
		t.Fatalf("EmbedImages failed: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if res.Embeddings[0][0] != 1 || res.Embeddings[1][1] != 1 {
		t.Errorf("expected index order restored and normalized, got %v", res.Embeddings)
	}
}

func TestEmbedder_EmbedImagesEmpty(t *testing.T) {
	res, err := newTestEmbedder("http://unused").EmbedImages(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected nil embeddings, got %v", res.Embeddings)
	}
}

func TestEmbedder_CountMismatch(t *testing.T) {
	srv := embeddingServer(t, nil, embeddingData{Object: "embedding", Embedding: []float32{1}})

	frames := []image.Image{image.NewRGBA(image.Rect(0, 0, 1, 1)), image.NewRGBA(image.Rect(0, 0, 1, 1))}
	_, err := newTestEmbedder(srv.URL).EmbedImages(context.Background(), frames)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_ZeroVector(t *testing.T) {
	srv := embeddingServer(t, nil, embeddingData{Object: "embedding", Embedding: []float32{0, 0}})

	_, err := newTestEmbedder(srv.URL).EmbedText(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).EmbedText(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected 429 to map to ErrRateLimited, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("expected provider message in error, got %v", err)
	}
}

func TestEmbedder_ServerErrorNotRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"model not loaded"}`))
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).EmbedText(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("500 must not map to ErrRateLimited: %v", err)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"clip","object":"model"}]}`))
	}))
	defer server.Close()

	if err := newTestEmbedder(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not loaded"}`)); got != "model not loaded" {
		t.Errorf("expected detail, got %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
