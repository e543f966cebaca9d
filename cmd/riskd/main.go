package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/road-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/road-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/road-risk-service/internal/config"
	"github.com/couchcryptid/road-risk-service/internal/model"
	"github.com/couchcryptid/road-risk-service/internal/observability"
	"github.com/couchcryptid/road-risk-service/internal/scoring"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// The service starts even without a model and answers 503 until one loads.
	handle := model.NewHandle(cfg.ModelPath, clock)
	if ensemble, err := handle.Load(); err != nil {
		logger.Error("model load failed", "model_path", cfg.ModelPath, "error", err)
	} else {
		metrics.ModelLoaded.Set(1)
		logger.Info("model loaded", "model_path", cfg.ModelPath, "trees", ensemble.Trees(), "loaded_at", handle.LoadedAt())
	}

	var (
		recorder scoring.Recorder
		writer   *kafkaadapter.Writer
	)
	if cfg.PredictionEventsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		recorder = writer
		logger.Info("prediction events enabled", "topic", cfg.KafkaPredictionTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("prediction events disabled")
	}

	svc := scoring.New(handle, recorder, logger, metrics, clock,
		scoring.WithPublishTimeout(cfg.PredictionEventsTimeout))
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start model watcher.
	if cfg.ModelWatch {
		watcher := model.NewWatcher(handle, logger, metrics)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("model watcher error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	// Let in-flight prediction events finish before closing the writer.
	svc.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
