// Package embedding builds media embeddings from frames and instruments embedder calls.
package embedding

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/metrics"
)

// DefaultMaxFrames is how many leading frames represent an animation.
const DefaultMaxFrames = 5

// FrameEmbedder implements domain.MediaEmbedder: decode up to maxFrames frames,
// embed them, normalize each, average, renormalize.
type FrameEmbedder struct {
	decoder   FrameDecoder
	images    ImageEmbedder
	maxFrames int
}

// NewFrameEmbedder creates a media embedder over a decoder and an image embedder.
func NewFrameEmbedder(decoder FrameDecoder, images ImageEmbedder, maxFrames int) *FrameEmbedder {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &FrameEmbedder{decoder: decoder, images: images, maxFrames: maxFrames}
}

// EmbedMedia returns one normalized vector for the animation at url.
func (f *FrameEmbedder) EmbedMedia(ctx context.Context, url string) (domain.EmbeddingResult, error) {
	frames, err := f.decoder.DecodeFrames(ctx, url, f.maxFrames)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("decode frames: %w", err)
	}
	if len(frames) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("no frames: %w", domain.ErrMediaDecode)
	}
	if len(frames) > f.maxFrames {
		frames = frames[:f.maxFrames]
	}
	metrics.MediaFramesDecoded.Observe(float64(len(frames)))

	batch, err := f.images.EmbedImages(ctx, frames)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed frames: %w", err)
	}
	if len(batch.Embeddings) != len(frames) {
		return domain.EmbeddingResult{}, fmt.Errorf("got %d frame embeddings for %d frames: %w",
			len(batch.Embeddings), len(frames), domain.ErrEmbeddingProviderError)
	}

	normalized := make([][]float32, len(batch.Embeddings))
	for i, v := range batch.Embeddings {
		n, err := domain.Normalize(v)
		if err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("frame %d: %w", i, err)
		}
		normalized[i] = n
	}
	mean, err := domain.Mean(normalized)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("average frames: %w", err)
	}
	// Opposing frames can cancel out; Normalize rejects a zero mean.
	vec, err := domain.Normalize(mean)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("renormalize: %w", err)
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: batch.PromptTokens,
		TotalTokens:  batch.TotalTokens,
	}, nil
}
