package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/airquality-ingest-service/internal/adapter/http"
	"github.com/couchcryptid/airquality-ingest-service/internal/adapter/influxdb"
	kafkaadapter "github.com/couchcryptid/airquality-ingest-service/internal/adapter/kafka"
	"github.com/couchcryptid/airquality-ingest-service/internal/adapter/postgres"
	"github.com/couchcryptid/airquality-ingest-service/internal/config"
	"github.com/couchcryptid/airquality-ingest-service/internal/observability"
	"github.com/couchcryptid/airquality-ingest-service/internal/pipeline"
	"github.com/couchcryptid/airquality-ingest-service/internal/progress"
	"github.com/couchcryptid/airquality-ingest-service/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Measurements always land in PostgreSQL; InfluxDB is an optional mirror
	// (feature-flagged via INFLUXDB_URL / INFLUXDB_ENABLED).
	var loader pipeline.BatchLoader = store
	if cfg.InfluxEnabled {
		mirror, err := influxdb.NewWriter(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to connect to influxdb", "error", err)
			os.Exit(1)
		}
		defer mirror.Close()
		loader = pipeline.MultiLoader{store, mirror}
		logger.Info("influxdb mirror enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	} else {
		logger.Info("influxdb mirror disabled")
	}

	opts := []pipeline.Option{
		pipeline.WithLocation(cfg.IngestLocation),
		pipeline.WithDefaults(pipeline.Options{Separator: cfg.IngestSeparator, ChunkSize: cfg.IngestChunkSize}),
	}

	var progressWriter *kafkaadapter.ProgressWriter
	if cfg.KafkaEnabled {
		progressWriter = kafkaadapter.NewProgressWriter(cfg, logger)
		opts = append(opts, pipeline.WithNotifier(progressWriter))
		logger.Info("kafka progress events enabled", "topic", cfg.KafkaProgressTopic)
	}

	registry := progress.NewRegistry(logger, metrics,
		progress.WithReplaySize(cfg.ProgressReplaySize),
		progress.WithRetention(cfg.JobRetention),
	)
	orchestrator := pipeline.New(loader, registry, logger, metrics, opts...)
	engine := query.NewEngine(store, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Services{
		Ingester:       orchestrator,
		Querier:        engine,
		Ready:          store,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// Jobs cannot be cancelled; give in-flight ones the shutdown window to finish.
	done := make(chan struct{})
	go func() {
		orchestrator.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("in-flight ingestion jobs abandoned at shutdown")
	}

	if progressWriter != nil {
		if err := progressWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
