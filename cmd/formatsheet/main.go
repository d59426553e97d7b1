// Command formatsheet styles a tab: frozen bold header, column widths, and
// number formats chosen by column name.
//
// Usage:
//
//	go run ./cmd/formatsheet [-tab buoy_data] [-all]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/swell-alert-etl/internal/adapter/backend"
	"github.com/couchcryptid/swell-alert-etl/internal/config"
	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

func main() {
	tab := flag.String("tab", "", "tab to format (default: the raw data tab)")
	all := flag.Bool("all", false, "format the raw tab and every alert tab")
	flag.Parse()

	os.Exit(run(*tab, *all))
}

func run(tab string, all bool) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open backend", "backend", cfg.SheetBackend, "error", err)
		return 1
	}
	defer store.Close()

	tabs := []string{cfg.Tabs.Raw}
	switch {
	case all:
		for _, c := range domain.Categories {
			tabs = append(tabs, cfg.Tabs.Alert(c))
		}
	case tab != "":
		tabs = []string{tab}
	}

	code := 0
	for _, t := range tabs {
		if err := backend.Format(ctx, store, t); err != nil {
			logger.Error("format failed", "tab", t, "error", err)
			code = 1
		}
	}
	return code
}
