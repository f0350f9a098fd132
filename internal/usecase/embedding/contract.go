package embedding

import (
	"context"
	"image"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

// FrameDecoder samples leading frames from a media resource.
type FrameDecoder interface {
	DecodeFrames(ctx context.Context, url string, maxFrames int) ([]image.Image, error)
}

// ImageEmbedder embeds decoded frames in one call.
type ImageEmbedder interface {
	EmbedImages(ctx context.Context, frames []image.Image) (domain.BatchEmbeddingResult, error)
}
