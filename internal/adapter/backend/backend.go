// Package backend opens the tabular store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/swell-alert-etl/internal/adapter/sheets"
	"github.com/couchcryptid/swell-alert-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/swell-alert-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/swell-alert-etl/internal/config"
	"github.com/couchcryptid/swell-alert-etl/internal/domain"
	"github.com/couchcryptid/swell-alert-etl/internal/pipeline"
)

// ErrFormatUnsupported is returned by Format for backends without cell styling.
var ErrFormatUnsupported = errors.New("backend does not support formatting")

// Store is an open tabular backend.
type Store interface {
	pipeline.SheetGateway
	io.Closer
}

// Formatter is implemented by backends that can style a tab.
type Formatter interface {
	FormatTab(ctx context.Context, name string) error
}

// Open returns the backend named by cfg.SheetBackend. Missing Google
// credentials are a *domain.ConfigError.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.SheetBackend {
	case config.BackendSheets:
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, &domain.ConfigError{Key: "GOOGLE_APPLICATION_CREDENTIALS", Err: err}
		}
		g, err := sheets.New(ctx, cfg.SheetDestination, cfg.CredentialsFile, logger)
		if err != nil {
			return nil, &domain.ConfigError{Key: "GOOGLE_APPLICATION_CREDENTIALS", Err: err}
		}
		return g, nil
	case config.BackendXLSX:
		w, err := xlsx.Open(cfg.SheetDestination, logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SheetDestination, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &domain.ConfigError{Key: "SHEET_BACKEND", Err: fmt.Errorf("unknown backend %q", cfg.SheetBackend)}
	}
}

// Format styles a tab when the backend supports it.
func Format(ctx context.Context, s Store, tab string) error {
	f, ok := s.(Formatter)
	if !ok {
		return fmt.Errorf("format %q: %w", tab, ErrFormatUnsupported)
	}
	return f.FormatTab(ctx, tab)
}
