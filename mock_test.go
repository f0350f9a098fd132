package gifrank

import (
	"context"
	"errors"
	"sync"
)

type mockProvider struct {
	mu       sync.Mutex
	results  map[string][]string
	trending []string
	err      error
	calls    int
}

func (p *mockProvider) Search(_ context.Context, term string, limit int) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	urls := p.results[term]
	if len(urls) > limit {
		urls = urls[:limit]
	}
	return urls, nil
}

func (p *mockProvider) Trending(_ context.Context, limit int) ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(p.trending) > limit {
		return p.trending[:limit], nil
	}
	return p.trending, nil
}

type mockText struct {
	vec []float32
	err error
}

func (m *mockText) EmbedText(_ context.Context, _ string) (EmbeddingResult, error) {
	if m.err != nil {
		return EmbeddingResult{}, m.err
	}
	return EmbeddingResult{Embedding: m.vec, TotalTokens: 4}, nil
}

type mockMedia struct {
	vectors map[string][]float32
}

func (m *mockMedia) EmbedMedia(_ context.Context, url string) (EmbeddingResult, error) {
	v, ok := m.vectors[url]
	if !ok {
		return EmbeddingResult{}, errors.New("download failed")
	}
	return EmbeddingResult{Embedding: v}, nil
}
