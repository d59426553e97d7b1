// Command alertsheet evaluates the newest row already in the raw tab and
// logs any matched alerts, without fetching a feed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/swell-alert-etl/internal/adapter/backend"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open backend", "backend", cfg.SheetBackend, "error", err)
		return 1
	}
	defer store.Close()

	p := pipeline.New(nil, store, domain.NewEvaluator(cfg.Thresholds), nil, pipeline.Options{
		Tabs:       cfg.Tabs,
		RawColumns: cfg.RawColumns,
	}, logger, observability.NewMetrics())

	summary, err := p.EvaluateLatest(ctx)
	if err != nil {
		logger.Error("evaluate latest row failed", "tab", cfg.Tabs.Raw, "error", err)
		return 1
	}
	if len(summary.Stations) > 0 {
		fmt.Print(summary.Render())
	}
	return 0
}
