package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/csvsource"
	httpadapter "github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/bikeshare-analytics-service/internal/adapter/kafka"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/analysis"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/config"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/observability"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(
		csvsource.NewSource(cfg.DayDataPath, domain.Daily),
		csvsource.NewSource(cfg.HourDataPath, domain.Hourly),
		logger,
		metrics,
	)

	// Both tables must load before anything is served.
	datasets, err := p.Load(ctx)
	if err != nil {
		logger.Error("failed to load datasets", "error", err)
		os.Exit(1)
	}

	var opts []analysis.ServiceOption
	var publisher *kafkaadapter.Publisher
	if cfg.PublishEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, analysis.WithSink(publisher))
		logger.Info("view publishing enabled", "topic", cfg.KafkaViewTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("view publishing disabled")
	}

	svc := analysis.NewService(datasets, logger, metrics, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, logger)

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
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
