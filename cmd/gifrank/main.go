package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/app"
	"github.com/kailas-cloud/gifrank/internal/config"
	logpkg "github.com/kailas-cloud/gifrank/internal/logger"
	"github.com/kailas-cloud/gifrank/internal/metrics"
	chiTransport "github.com/kailas-cloud/gifrank/internal/transport/chi"
	"github.com/kailas-cloud/gifrank/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gifrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("llm_terms", cfg.Terms.LLMEnabled),
		zap.Bool("replies", cfg.Terms.ReplyEnabled),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()
	engine, err := app.Build(ctx, &cfg, app.Overrides{}, logger)
	if err != nil {
		logger.Fatal("Failed to build engine", zap.Error(err))
	}
	defer engine.Close()

	server := chiTransport.NewServer(
		engine.Ranking, engine.Suggest, engine.Terms, engine.Retrieval, engine.Health, logger,
	)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:        cfg.Auth.APIKeys,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
