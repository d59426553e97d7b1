package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "swell.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AppendAndReadLatest(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, domain.DefaultRawTab, []string{"timestamp_utc", "station_id", "wave_height_ft", "mean_wave_dir_deg"}))
	require.NoError(t, s.AppendRows(ctx, domain.DefaultRawTab, [][]any{
		{"2024-01-15T12:10:00Z", "41117", 1.6, 105.0},
		{"2024-01-15T12:40:00Z", "41117", 2.0, ""},
	}))
	require.NoError(t, s.WriteStatus(ctx, domain.DefaultRawTab, "No Longboard alerts"))

	rec, ok, err := s.ReadLatestRow(ctx, domain.DefaultRawTab)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Record{
		domain.FieldTimestamp:   "2024-01-15T12:40:00Z",
		domain.FieldStationID:   "41117",
		domain.FieldWaveHeight:  "2",
		domain.FieldMeanWaveDir: "",
	}, rec)
}

func TestStore_EnsureTab_KeepsExistingHeader(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "t", []string{"a", "b"}))
	require.NoError(t, s.EnsureTab(ctx, "t", []string{"x"}))
	require.NoError(t, s.AppendRows(ctx, "t", [][]any{{"1", "2"}}))

	rec, ok, err := s.ReadLatestRow(ctx, "t")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Record{"a": "1", "b": "2"}, rec)
}

func TestStore_EnsureTab_FillsEmptyHeader(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTab(ctx, "t", nil))
	require.NoError(t, s.EnsureTab(ctx, "t", []string{"a"}))
	require.NoError(t, s.AppendRows(ctx, "t", [][]any{{"1"}}))

	rec, _, err := s.ReadLatestRow(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "1", rec["a"])
}

func TestStore_ReadLatestRow_Empty(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, ok, err := s.ReadLatestRow(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.EnsureTab(ctx, "t", []string{"a"}))
	require.NoError(t, s.WriteStatus(ctx, "t", "only a status"))
	_, ok, err = s.ReadLatestRow(ctx, "t")
	require.NoError(t, err)
	assert.False(t, ok, "status rows are not data")
}

func TestStore_Statuses(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureTab(ctx, domain.DefaultLongboardTab, []string{"logged_at_utc"}))

	require.NoError(t, s.WriteStatus(ctx, domain.DefaultLongboardTab, "No Longboard alerts at 2024-01-15 12:00:00 UTC (1/1 stations)"))
	require.NoError(t, s.WriteStatus(ctx, domain.DefaultLongboardTab, "1 Longboard alert(s) at 2024-01-15 13:00:00 UTC (1/1 stations)"))

	statuses, err := s.Statuses(ctx, domain.DefaultLongboardTab)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"No Longboard alerts at 2024-01-15 12:00:00 UTC (1/1 stations)",
		"1 Longboard alert(s) at 2024-01-15 13:00:00 UTC (1/1 stations)",
	}, statuses)
}

func TestStore_AppendToMissingTabFails(t *testing.T) {
	s := openTemp(t)
	err := s.AppendRows(context.Background(), "nope", [][]any{{"x"}})
	assert.Error(t, err, "foreign key rejects unknown tabs")
}

func TestDecodeCells(t *testing.T) {
	cells, err := decodeCells(`["a", 1.5, 2, null, true]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1.5", "2", "", "true"}, cells)
}
