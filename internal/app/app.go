// Package app assembles the ranking engine from configuration.
// It is the shared composition root of the HTTP server, the CLI and the library client.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/config"
	"github.com/kailas-cloud/gifrank/internal/db"
	dbMemory "github.com/kailas-cloud/gifrank/internal/db/memory"
	dbRedis "github.com/kailas-cloud/gifrank/internal/db/redis"
	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/gateway"
	"github.com/kailas-cloud/gifrank/internal/metrics"
	"github.com/kailas-cloud/gifrank/internal/repository/embcache"
	"github.com/kailas-cloud/gifrank/internal/transport/giphy"
	"github.com/kailas-cloud/gifrank/internal/transport/media"
	openaiTransport "github.com/kailas-cloud/gifrank/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/gifrank/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/gifrank/internal/usecase/health"
	"github.com/kailas-cloud/gifrank/internal/usecase/ranking"
	"github.com/kailas-cloud/gifrank/internal/usecase/retrieval"
	suggestuc "github.com/kailas-cloud/gifrank/internal/usecase/suggest"
	termsuc "github.com/kailas-cloud/gifrank/internal/usecase/terms"
)

// Overrides replace components that Build would otherwise create from config.
// Zero fields are built from config.
type Overrides struct {
	Provider   retrieval.Provider
	Text       domain.TextEmbedder
	Media      domain.MediaEmbedder
	Store      db.Store
	HTTPClient *http.Client
	Generator  termsuc.Generator
	Replier    suggestuc.Replier
}

// App holds the wired services.
type App struct {
	Ranking   *ranking.Service
	Terms     *termsuc.Service
	Suggest   *suggestuc.Service
	Retrieval *retrieval.Client
	Health    *healthuc.Service
	Gateway   *gateway.Gateway

	store db.Store
}

// Build wires the engine. The caller owns the returned App and must Close it.
func Build(ctx context.Context, cfg *config.Config, ov Overrides, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := buildStore(ctx, cfg, ov.Store, logger)
	if err != nil {
		return nil, err
	}

	provider := ov.Provider
	if provider == nil {
		gc, err := giphy.New(giphy.Config{
			APIKey:     cfg.Giphy.APIKey,
			BaseURL:    cfg.Giphy.BaseURL,
			Rating:     cfg.Giphy.Rating,
			Lang:       cfg.Giphy.Lang,
			Rendition:  cfg.Giphy.Rendition,
			Timeout:    time.Duration(cfg.Giphy.TimeoutSec) * time.Second,
			HTTPClient: ov.HTTPClient,
		}, logger)
		if err != nil {
			closeStore(store)
			return nil, fmt.Errorf("giphy client: %w", err)
		}
		provider = gc
	}

	gw := gateway.New(gateway.Config{
		TTL:         time.Duration(cfg.Gateway.TTLSec) * time.Second,
		MinInterval: time.Duration(cfg.Gateway.MinIntervalMs) * time.Millisecond,
		MaxEntries:  cfg.Gateway.MaxEntries,
	}, logger).WithMetrics(metrics.GatewayCacheTotal, metrics.GatewayThrottleWait)

	search := retrieval.NewClient(provider, gw, retrieval.ClientConfig{
		DefaultLimit:   cfg.Giphy.DefaultLimit,
		MaxLimit:       cfg.Giphy.MaxLimit,
		RequestTimeout: time.Duration(cfg.Giphy.TimeoutSec) * time.Second,
		MaxAttempts:    cfg.Giphy.MaxAttempts,
	}, logger).WithBackoff(retrieval.ExponentialBackoff(time.Duration(cfg.Giphy.BackoffMs)*time.Millisecond), nil)
	aggregator := retrieval.NewAggregator(search).WithParallelism(cfg.Ranking.AggregateParallel)

	text, mediaEmb, checker := buildEmbedders(cfg, ov, store, logger)

	rankSvc := ranking.New(text, mediaEmb, aggregator, logger).WithConfig(ranking.Config{
		Dimensions:       cfg.Embedding.Dimensions,
		Concurrency:      cfg.Ranking.Concurrency,
		CandidateTimeout: time.Duration(cfg.Ranking.CandidateTimeoutSec) * time.Second,
		QueryTimeout:     time.Duration(cfg.Ranking.QueryTimeoutSec) * time.Second,
		UnrankedFallback: cfg.Ranking.UnrankedFallback == nil || *cfg.Ranking.UnrankedFallback,
	})

	gen, replier := ov.Generator, ov.Replier
	if (gen == nil && cfg.Terms.LLMEnabled) || (replier == nil && cfg.Terms.ReplyEnabled) {
		chat := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.Terms.APIKey,
			BaseURL:     cfg.Terms.BaseURL,
			Model:       cfg.Terms.Model,
			MaxTerms:    cfg.Terms.MaxTerms,
			MaxTokens:   cfg.Terms.MaxTokens,
			Temperature: cfg.Terms.Temperature,
			Logger:      logger,
		})
		if gen == nil && cfg.Terms.LLMEnabled {
			gen = chat
		}
		if replier == nil && cfg.Terms.ReplyEnabled {
			replier = chat
		}
	}

	termSvc := termsuc.New(cfg.Terms.MaxTerms, logger)
	if gen != nil {
		termSvc = termSvc.WithLLM(gen, time.Duration(cfg.Terms.TimeoutSec)*time.Second)
	}
	suggestSvc := suggestuc.New(rankSvc, logger).WithTerms(termSvc)
	if replier != nil {
		suggestSvc = suggestSvc.WithReplier(replier, time.Duration(cfg.Terms.ReplyTimeoutSec)*time.Second)
	}

	var pinger healthuc.CachePinger
	if store != nil {
		pinger = store
	}

	return &App{
		Ranking:   rankSvc,
		Terms:     termSvc,
		Suggest:   suggestSvc,
		Retrieval: search,
		Health:    healthuc.New(pinger, checker),
		Gateway:   gw,
		store:     store,
	}, nil
}

// Close releases the cache store.
func (a *App) Close() {
	closeStore(a.store)
}

func closeStore(s db.Store) {
	if s != nil {
		s.Close()
	}
}

func buildStore(ctx context.Context, cfg *config.Config, override db.Store, logger *zap.Logger) (db.Store, error) {
	if override != nil {
		return override, nil
	}
	switch cfg.Cache.Driver {
	case config.CacheDriverNone:
		return nil, nil
	case config.CacheDriverMemory:
		return dbMemory.NewStore(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSec)*time.Second), nil
	case config.CacheDriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

// buildEmbedders assembles the decorator chain:
// provider -> cached -> instrumented -> instruction (text only, outermost so the cache key includes it).
func buildEmbedders(
	cfg *config.Config, ov Overrides, store db.Store, logger *zap.Logger,
) (domain.TextEmbedder, domain.MediaEmbedder, healthuc.EmbeddingChecker) {
	text, mediaEmb := ov.Text, ov.Media
	var checker healthuc.EmbeddingChecker

	if text == nil || mediaEmb == nil {
		base := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		checker = base
		if text == nil {
			text = base
		}
		if mediaEmb == nil {
			decoder := media.NewDecoder(media.Config{
				MaxBytes:   cfg.Embedding.MaxMediaBytes,
				Timeout:    time.Duration(cfg.Embedding.MediaTimeoutSec) * time.Second,
				HTTPClient: ov.HTTPClient,
			}, logger)
			mediaEmb = embeddinguc.NewFrameEmbedder(decoder, base, cfg.Embedding.MaxFrames)
		}
	}

	if store != nil {
		cached := embcache.New(text, mediaEmb, cfg.Embedding.Model, store, metrics.EmbeddingCacheTotal, logger).
			WithTTL(time.Duration(cfg.Cache.TTLSec) * time.Second)
		text, mediaEmb = cached, cached
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(
		text, mediaEmb, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger,
	)
	text, mediaEmb = instrumented, instrumented

	if cfg.Embedding.QueryInstruction != "" {
		text = domain.NewInstructionEmbedder(text, cfg.Embedding.QueryInstruction)
	}
	return text, mediaEmb, checker
}
