package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/hydroviz/hydro-data-prep/internal/adapter/http"
	"github.com/hydroviz/hydro-data-prep/internal/adapter/iso3166"
	kafkaadapter "github.com/hydroviz/hydro-data-prep/internal/adapter/kafka"
	"github.com/hydroviz/hydro-data-prep/internal/config"
	"github.com/hydroviz/hydro-data-prep/internal/dataset"
	"github.com/hydroviz/hydro-data-prep/internal/observability"
	"github.com/hydroviz/hydro-data-prep/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	resolver := iso3166.NewResolver()
	loader := dataset.NewCSVLoader(resolver, cfg.FetchTimeout, logger, metrics)
	tables := dataset.NewCachedLoader(loader, cfg.CacheTTL, nil, metrics)

	// Kafka publishing is feature-flagged via HYDRO_KAFKA_ENABLED.
	var sink pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	refresher := pipeline.New(tables, sink, cfg.DatasetSource, cfg.RefreshInterval, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.DatasetSource, tables, refresher, refresher, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the refresh loop.
	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
