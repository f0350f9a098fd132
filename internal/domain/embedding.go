package domain

import (
	"context"
	"fmt"
)

// KeyPrefix namespaces every key gifrank writes to a shared store.
const KeyPrefix = "gifrank:"

// TextEmbedder is the text vectorization contract shared between layers.
// Implementations return an L2-normalized vector.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) (EmbeddingResult, error)
}

// MediaEmbedder vectorizes a media resource (GIF URL) into the same space as TextEmbedder.
// Implementations return a single L2-normalized vector per resource.
type MediaEmbedder interface {
	EmbedMedia(ctx context.Context, url string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// ValidateVector checks that v has dimension dim and unit L2 norm.
// dim <= 0 skips the dimension check.
func ValidateVector(v []float32, dim int) error {
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("got %d, want %d: %w", len(v), dim, ErrVectorDimMismatch)
	}
	if len(v) == 0 {
		return fmt.Errorf("empty vector: %w", ErrVectorDimMismatch)
	}
	if !IsNormalized(v) {
		return fmt.Errorf("norm %.6f: %w", Norm(v), ErrVectorNotNormalized)
	}
	return nil
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
// CLIP-style models score better when the query reads like a caption ("a gif of ...").
type InstructionEmbedder struct {
	inner       TextEmbedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner TextEmbedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// EmbedText prepends instruction and delegates to inner embedder.
func (e *InstructionEmbedder) EmbedText(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.EmbedText(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
