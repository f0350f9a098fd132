package gifrank

import "context"

// SearchProvider is a keyword GIF search backend. Results are URLs in provider relevance order.
// Giphy is used unless WithProvider replaces it.
type SearchProvider interface {
	Search(ctx context.Context, term string, limit int) ([]string, error)
	Trending(ctx context.Context, limit int) ([]string, error)
}

// TextEmbedder converts text to a unit-length vector.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) (EmbeddingResult, error)
}

// MediaEmbedder converts a GIF URL to a unit-length vector in the TextEmbedder's space.
type MediaEmbedder interface {
	EmbedMedia(ctx context.Context, url string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
