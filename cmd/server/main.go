package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agenthands/vectordb-crud/internal/artifact"
	"github.com/agenthands/vectordb-crud/internal/config"
	"github.com/agenthands/vectordb-crud/internal/core"
	"github.com/agenthands/vectordb-crud/internal/inference"
	"github.com/agenthands/vectordb-crud/internal/metrics"
	"github.com/agenthands/vectordb-crud/internal/server"
	"github.com/agenthands/vectordb-crud/internal/vectorstore/backend"
	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.LoadWithEnv(cfgPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := backend.Open(ctx, cfg.VectorStore, logger)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("failed to ensure index: %w", err)
	}

	suite, err := inference.NewSuite(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to configure inference: %w", err)
	}

	artifacts, err := artifact.New(ctx, cfg.Artifacts, logger)
	if err != nil {
		return fmt.Errorf("failed to configure artifacts: %w", err)
	}

	collector := metrics.New()
	svc := core.NewService(store, suite, artifacts, core.Options{
		Dimension:        cfg.VectorStore.Dimension,
		ListLimit:        cfg.Server.ListLimit,
		SummaryMaxLength: cfg.Inference.SummaryMaxLength,
		Logger:           logger,
		Metrics:          collector,
	})

	srv := server.NewServer(svc, logger)
	srv.Metrics = collector
	srv.MetricsHandler = collector.Handler()

	var handler http.Handler = srv.SetupRouter()
	if cfg.Server.Compress {
		handler = gzhttp.GzipHandler(handler)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Server.Port, "vectorstore", cfg.VectorStore.Provider)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
