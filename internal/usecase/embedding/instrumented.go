package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/logger"
)

// InstrumentedEmbedder wraps text and media embedders with vector validation,
// per-request usage accounting and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	text       domain.TextEmbedder
	media      domain.MediaEmbedder
	provider   string
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps embedders. Either may be nil if unused.
func NewInstrumentedEmbedder(
	text domain.TextEmbedder, media domain.MediaEmbedder,
	provider, model string, dimensions int, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		text:       text,
		media:      media,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// EmbedText delegates to the text embedder and validates the vector.
func (p *InstrumentedEmbedder) EmbedText(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.text == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("text embedder: %w", domain.ErrNotConfigured)
	}
	return p.observe(ctx, "text", func(ctx context.Context) (domain.EmbeddingResult, error) {
		return p.text.EmbedText(ctx, text)
	}, zap.Int("text_len", len(text)))
}

// EmbedMedia delegates to the media embedder and validates the vector.
func (p *InstrumentedEmbedder) EmbedMedia(ctx context.Context, url string) (domain.EmbeddingResult, error) {
	if p.media == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("media embedder: %w", domain.ErrNotConfigured)
	}
	return p.observe(ctx, "media", func(ctx context.Context) (domain.EmbeddingResult, error) {
		return p.media.EmbedMedia(ctx, url)
	}, zap.String("url", url))
}

func (p *InstrumentedEmbedder) observe(
	ctx context.Context, kind string,
	call func(context.Context) (domain.EmbeddingResult, error),
	field zap.Field,
) (domain.EmbeddingResult, error) {
	log := logger.FromContextOr(ctx, p.logger)
	start := time.Now()

	result, err := call(ctx)

	duration := time.Since(start)

	if err != nil {
		log.Debug("Embedding request failed",
			zap.String("kind", kind),
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			field,
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", kind, err)
	}

	if err := domain.ValidateVector(result.Embedding, p.dimensions); err != nil {
		log.Warn("Embedding provider returned invalid vector",
			zap.String("kind", kind),
			zap.String("model", p.model),
			zap.Int("dimensions", len(result.Embedding)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", kind, err)
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	log.Debug("Embedding request completed",
		zap.String("kind", kind),
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
		field,
	)

	return result, nil
}
