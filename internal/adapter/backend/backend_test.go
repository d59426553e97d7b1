package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/swell-alert-etl/internal/config"
	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_LocalBackends(t *testing.T) {
	tests := []struct {
		backend   string
		file      string
		formatErr error
	}{
		{config.BackendXLSX, "alerts.xlsx", nil},
		{config.BackendSQLite, "alerts.db", ErrFormatUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := &config.Config{SheetBackend: tt.backend, SheetDestination: filepath.Join(t.TempDir(), tt.file)}

			s, err := Open(ctx, cfg, discardLogger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })

			require.NoError(t, s.EnsureTab(ctx, "buoy_data", []string{"timestamp_utc", "station_id"}))
			require.NoError(t, s.AppendRows(ctx, "buoy_data", [][]any{{"2024-01-15T12:40:00Z", "41117"}}))

			rec, ok, err := s.ReadLatestRow(ctx, "buoy_data")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "41117", rec[domain.FieldStationID])

			err = Format(ctx, s, "buoy_data")
			if tt.formatErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.formatErr)
			}
		})
	}
}

func TestOpen_SheetsMissingCredentials(t *testing.T) {
	cfg := &config.Config{
		SheetBackend:     config.BackendSheets,
		SheetDestination: "sheet-123",
		CredentialsFile:  filepath.Join(t.TempDir(), "missing.json"),
	}
	_, err := Open(context.Background(), cfg, discardLogger())

	var ce *domain.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "GOOGLE_APPLICATION_CREDENTIALS", ce.Key)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{SheetBackend: "csv"}, discardLogger())

	var ce *domain.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "SHEET_BACKEND", ce.Key)
}
