// Command swellwatch fetches the configured NDBC buoys, appends their latest
// readings to the raw tab, and logs matched surf alerts to the alert tabs.
//
// With RUN_INTERVAL unset it runs once, prints a summary table, and exits.
// With RUN_INTERVAL set it repeats on that interval and serves /healthz,
// /readyz, /runs/latest and /metrics on HTTP_ADDR until interrupted.
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

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/swell-alert-etl/internal/adapter/backend"
	"github.com/couchcryptid/swell-alert-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/swell-alert-etl/internal/adapter/kafka"
	"github.com/couchcryptid/swell-alert-etl/internal/adapter/ndbc"
	"github.com/couchcryptid/swell-alert-etl/internal/config"
	"github.com/couchcryptid/swell-alert-etl/internal/domain"
	"github.com/couchcryptid/swell-alert-etl/internal/observability"
	"github.com/couchcryptid/swell-alert-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open backend", "backend", cfg.SheetBackend, "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("backend close error", "error", err)
		}
	}()

	var publisher pipeline.AlertPublisher
	if cfg.AlertKafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.AlertKafkaBrokers, cfg.AlertKafkaTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("alert publishing enabled", "topic", cfg.AlertKafkaTopic, "brokers", cfg.AlertKafkaBrokers)
	}

	client := ndbc.NewClient(cfg.NDBCBaseURL, cfg.FetchTimeout, metrics, logger)
	p := pipeline.New(client, store, domain.NewEvaluator(cfg.Thresholds), publisher, pipeline.Options{
		Tabs:            cfg.Tabs,
		RawColumns:      cfg.RawColumns,
		Feed:            cfg.FeedFormat,
		IncludeSpectral: cfg.IncludeSpectral,
	}, logger, metrics)

	logger.Info("starting",
		"stations", cfg.Stations,
		"backend", cfg.SheetBackend,
		"feed", cfg.FeedFormat,
		"spectral", cfg.IncludeSpectral,
		"interval", cfg.RunInterval,
	)

	if cfg.RunInterval == 0 {
		summary := p.RunOnce(ctx, cfg.Stations)
		fmt.Print(summary.Render())
		writeTextfile(cfg, logger)
		logRun(logger, summary)
		return 0
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	p.RunEvery(ctx, cfg.Stations, cfg.RunInterval, func(s pipeline.Summary) {
		writeTextfile(cfg, logger)
		logRun(logger, s)
	})

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return 0
}

func logRun(logger *slog.Logger, s pipeline.Summary) {
	logger.Info("run complete",
		"processed", s.Processed(),
		"stations", len(s.Stations),
		"longboard", s.Matches[domain.Longboard],
		"shortboard", s.Matches[domain.Shortboard],
		"short_period", s.Matches[domain.ShortPeriod],
		"duration", s.FinishedAt.Sub(s.StartedAt),
	)
}

func writeTextfile(cfg *config.Config, logger *slog.Logger) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("metrics textfile not written", "path", cfg.MetricsTextfile, "error", err)
	}
}
