// Package ranking orders GIF candidates by embedding similarity to a query.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
	"github.com/kailas-cloud/gifrank/internal/logger"
	"github.com/kailas-cloud/gifrank/internal/metrics"
	"github.com/kailas-cloud/gifrank/internal/vecindex"
)

// Defaults.
const (
	DefaultConcurrency      = 6
	DefaultCandidateTimeout = 15 * time.Second
	DefaultQueryTimeout     = 10 * time.Second
)

// Config tunes the pipeline.
type Config struct {
	Dimensions       int
	Concurrency      int
	CandidateTimeout time.Duration
	QueryTimeout     time.Duration
	UnrankedFallback bool
}

// DefaultConfig returns the production pipeline settings.
func DefaultConfig() Config {
	return Config{
		Dimensions:       domain.DefaultVectorConfig().Dimensions,
		Concurrency:      DefaultConcurrency,
		CandidateTimeout: DefaultCandidateTimeout,
		QueryTimeout:     DefaultQueryTimeout,
		UnrankedFallback: true,
	}
}

// Service runs query embedding → retrieval → candidate embedding → index → top-K.
type Service struct {
	text       domain.TextEmbedder
	media      domain.MediaEmbedder
	aggregator Aggregator
	cfg        Config
	logger     *zap.Logger
}

// New creates a ranking service with DefaultConfig.
func New(text domain.TextEmbedder, media domain.MediaEmbedder, aggregator Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		text:       text,
		media:      media,
		aggregator: aggregator,
		cfg:        DefaultConfig(),
		logger:     logger,
	}
}

// WithConfig replaces the pipeline settings. Zero fields fall back to defaults,
// except UnrankedFallback which is taken as given.
func (s *Service) WithConfig(cfg Config) *Service {
	def := DefaultConfig()
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = def.Dimensions
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.CandidateTimeout <= 0 {
		cfg.CandidateTimeout = def.CandidateTimeout
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	s.cfg = cfg
	return s
}

type slot struct {
	vector []float32
	ok     bool
}

// Rank returns up to req.TopK() candidates ordered by cosine similarity to the query.
// Only invalid input and caller cancellation are returned as errors; every
// provider-side failure degrades the result instead.
func (s *Service) Rank(ctx context.Context, req *rank.Request) (rank.Result, error) {
	if req == nil || req.Query() == "" || req.TopK() <= 0 {
		return rank.Result{}, fmt.Errorf("rank request: %w", domain.ErrInvalidInput)
	}
	log := logger.FromContextOr(ctx, s.logger)
	start := time.Now()

	queryVec, queryErr := s.embedQuery(ctx, req.Query())
	if err := ctx.Err(); err != nil {
		return rank.Result{}, fmt.Errorf("rank: %w", err)
	}
	if queryErr != nil {
		log.Warn("Query embedding failed", zap.Error(queryErr))
	}

	candidates := s.aggregator.Aggregate(ctx, req.Terms(), req.PerTermLimit())
	if err := ctx.Err(); err != nil {
		return rank.Result{}, fmt.Errorf("rank: %w", err)
	}
	metrics.RankCandidates.Observe(float64(len(candidates)))

	if len(candidates) == 0 {
		return s.finish(log, start, rank.Empty(rank.ReasonNoCandidates, 0, 0)), nil
	}
	if queryErr != nil {
		return s.finish(log, start, s.degrade(rank.ReasonEmbeddingUnavailable, candidates, req.TopK(), 0)), nil
	}

	slots, err := s.embedCandidates(ctx, candidates)
	if err != nil {
		return rank.Result{}, err
	}

	idx := vecindex.NewFlat[string](s.cfg.Dimensions)
	for i, sl := range slots {
		if !sl.ok {
			continue
		}
		if err := idx.Insert(sl.vector, candidates[i]); err != nil {
			metrics.CandidateFailuresTotal.WithLabelValues("vector").Inc()
			log.Warn("Candidate rejected by index", zap.String("url", candidates[i]), zap.Error(err))
		}
	}
	failed := len(candidates) - idx.Len()

	if idx.Len() == 0 {
		return s.finish(log, start, s.degrade(rank.ReasonNoEmbeddings, candidates, req.TopK(), failed)), nil
	}

	matches, err := idx.Search(queryVec, req.TopK())
	if err != nil {
		// query vector was validated in embedQuery; reaching here is a programming error
		return rank.Result{}, fmt.Errorf("search index: %w", err)
	}

	items := make([]rank.Item, len(matches))
	for i, m := range matches {
		items[i] = rank.Item{URL: m.Metadata, Score: m.Score}
	}
	return s.finish(log, start, rank.Result{
		Outcome:    rank.OutcomeRanked,
		Items:      items,
		Candidates: len(candidates),
		Failed:     failed,
	}), nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	res, err := s.text.EmbedText(qctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := domain.ValidateVector(res.Embedding, s.cfg.Dimensions); err != nil {
		return nil, fmt.Errorf("query vector: %w", err)
	}
	return res.Embedding, nil
}

// embedCandidates embeds candidates in a bounded pool. Each worker writes only its own
// slot; per-candidate failures leave the slot empty.
func (s *Service) embedCandidates(ctx context.Context, candidates []string) ([]slot, error) {
	log := logger.FromContextOr(ctx, s.logger)
	slots := make([]slot, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, url := range candidates {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			cctx, cancel := context.WithTimeout(gctx, s.cfg.CandidateTimeout)
			defer cancel()

			res, err := s.media.EmbedMedia(cctx, url)
			if err == nil {
				err = domain.ValidateVector(res.Embedding, s.cfg.Dimensions)
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				stage := failureStage(cctx, err)
				metrics.CandidateFailuresTotal.WithLabelValues(stage).Inc()
				log.Warn("Candidate embedding failed, skipping",
					zap.String("url", url),
					zap.String("stage", stage),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = slot{vector: res.Embedding, ok: true}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	return slots, nil
}

func (s *Service) degrade(reason rank.Reason, candidates []string, topK, failed int) rank.Result {
	if s.cfg.UnrankedFallback {
		return rank.Unranked(reason, candidates, topK, failed)
	}
	return rank.Empty(reason, len(candidates), failed)
}

func (s *Service) finish(log *zap.Logger, start time.Time, res rank.Result) rank.Result {
	metrics.RankOutcomesTotal.WithLabelValues(string(res.Outcome), string(res.Reason)).Inc()
	log.Info("Rank completed",
		zap.String("outcome", string(res.Outcome)),
		zap.String("reason", string(res.Reason)),
		zap.Int("candidates", res.Candidates),
		zap.Int("failed", res.Failed),
		zap.Int("items", len(res.Items)),
		zap.Duration("duration", time.Since(start)),
	)
	return res
}

func failureStage(cctx context.Context, err error) string {
	switch {
	case errors.Is(cctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrMediaFetch):
		return "fetch"
	case errors.Is(err, domain.ErrMediaDecode):
		return "decode"
	case errors.Is(err, domain.ErrVectorDimMismatch), errors.Is(err, domain.ErrVectorNotNormalized):
		return "vector"
	default:
		return "embed"
	}
}
