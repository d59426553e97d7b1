package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStation   = "41117"
	exampleHeader = "YY MM DD hh mm WDIR WSPD GST WVHT DPD APD MWD"
	exampleRow    = "24 01 15 12 00 180 5.0 1.0 1.5 13.5 999 90"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func requireParseError(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
	assert.Contains(t, pe.Reason, reason)
}

func TestParseText(t *testing.T) {
	t.Run("example row", func(t *testing.T) {
		obs, err := ParseText(exampleHeader+"\n"+exampleRow+"\n", testStation)
		require.NoError(t, err)

		assert.Equal(t, testStation, obs.StationID)
		assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), obs.Timestamp)
		require.NotNil(t, obs.WaveHeightFt)
		assert.Equal(t, 4.9, *obs.WaveHeightFt)
		require.NotNil(t, obs.DominantPeriodS)
		assert.Equal(t, 13.5, *obs.DominantPeriodS)
		assert.Nil(t, obs.AveragePeriodS, "999 is a missing sentinel")
		require.NotNil(t, obs.MeanWaveDirDeg)
		assert.Equal(t, 90.0, *obs.MeanWaveDirDeg)
		require.NotNil(t, obs.WindDirDeg)
		assert.Equal(t, 180.0, *obs.WindDirDeg)
		assert.Nil(t, obs.SwellHeightFt)
		assert.Equal(t, "E", obs.DirectionText)
	})

	t.Run("realtime fixture is newest first", func(t *testing.T) {
		obs, err := ParseText(readFixture(t, "41117.txt"), testStation)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 1, 15, 12, 40, 0, 0, time.UTC), obs.Timestamp)
		assert.Equal(t, 2.0, *obs.WaveHeightFt)
		assert.Equal(t, 14.0, *obs.DominantPeriodS)
		assert.Equal(t, 7.2, *obs.AveragePeriodS)
		assert.Equal(t, 110.0, *obs.MeanWaveDirDeg)
		assert.Equal(t, "ESE", obs.DirectionText)
	})

	t.Run("oldest first picks the latest row", func(t *testing.T) {
		body := exampleHeader + "\n" +
			"2024 01 15 11 00 180 5.0 1.0 1.0 10.0 6.0 80\n" +
			"2024 01 15 12 00 180 5.0 1.0 2.0 12.0 6.0 85\n"
		obs, err := ParseText(body, testStation)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), obs.Timestamp)
		assert.Equal(t, 12.0, *obs.DominantPeriodS)
	})

	t.Run("comment marker and case are ignored in header", func(t *testing.T) {
		body := "#yy mm dd HH MM wvht dpd mwd\n2024 03 02 06 30 1.0 9.0 45\n"
		obs, err := ParseText(body, testStation)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 3, 2, 6, 30, 0, 0, time.UTC), obs.Timestamp)
		assert.Equal(t, 3.3, *obs.WaveHeightFt)
	})

	t.Run("comma separated keeps empty cells aligned", func(t *testing.T) {
		body := "YY,MM,DD,hh,mm,WVHT,DPD,MWD\n2024,03,02,06,30,,9.0,45\n"
		obs, err := ParseText(body, testStation)
		require.NoError(t, err)

		assert.Nil(t, obs.WaveHeightFt)
		assert.Equal(t, 9.0, *obs.DominantPeriodS)
		assert.Equal(t, 45.0, *obs.MeanWaveDirDeg)
	})

	t.Run("MM sentinel is absent not zero", func(t *testing.T) {
		body := exampleHeader + "\n2024 01 15 12 00 MM MM MM MM MM MM MM\n"
		obs, err := ParseText(body, testStation)
		require.NoError(t, err)

		assert.Nil(t, obs.WaveHeightFt)
		assert.Nil(t, obs.DominantPeriodS)
		assert.Nil(t, obs.MeanWaveDirDeg)
		assert.Empty(t, obs.DirectionText)
	})

	t.Run("direction 360 wraps to north", func(t *testing.T) {
		body := "YY MM DD hh mm MWD\n2024 01 15 12 00 360\n"
		obs, err := ParseText(body, testStation)
		require.NoError(t, err)

		assert.Equal(t, 0.0, *obs.MeanWaveDirDeg)
		assert.Equal(t, "N", obs.DirectionText)
	})

	t.Run("spectral fixture converts compass swell direction", func(t *testing.T) {
		obs, err := ParseText(readFixture(t, "41117.spec"), testStation)
		require.NoError(t, err)

		assert.Equal(t, 1.6, *obs.SwellHeightFt)
		assert.Equal(t, 14.3, *obs.SwellPeriodS)
		assert.Equal(t, 112.5, *obs.SwellDirDeg)
		assert.Equal(t, 112.0, *obs.MeanWaveDirDeg)
		assert.Equal(t, "ESE", obs.DirectionText)
	})

	t.Run("idempotent", func(t *testing.T) {
		body := readFixture(t, "41117.txt")
		a, err := ParseText(body, testStation)
		require.NoError(t, err)
		b, err := ParseText(body, testStation)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestParseText_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		station string
		reason  string
	}{
		{"no header", "2024 01 15 12 00 1.0\n", testStation, "no header"},
		{"header missing minute", "YY MM DD hh WVHT\n2024 01 15 12 1.0\n", testStation, "no header"},
		{"empty body", "", testStation, "no header"},
		{"no numeric row", exampleHeader + "\n#yr mo dy hr mn\nfoo bar baz qux quux\n", testStation, "no numeric data row"},
		{"short rows", exampleHeader + "\n2024 01 15\n", testStation, "fewer than five columns"},
		{"empty station", exampleHeader + "\n" + exampleRow + "\n", " ", "station id is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(tt.body, tt.station)
			requireParseError(t, err, tt.reason)
		})
	}
}

func TestParseJSON(t *testing.T) {
	t.Run("json lines fixture", func(t *testing.T) {
		obs, err := ParseJSON(readFixture(t, "41117.json"), testStation)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 1, 15, 12, 40, 0, 0, time.UTC), obs.Timestamp)
		assert.Equal(t, 2.0, *obs.WaveHeightFt)
		assert.Equal(t, 14.0, *obs.DominantPeriodS)
		assert.Nil(t, obs.AveragePeriodS)
		assert.Equal(t, 110.0, *obs.MeanWaveDirDeg)
	})

	t.Run("array with date parts", func(t *testing.T) {
		body := `[{"YY":2024,"MM":1,"DD":15,"hh":9,"mn":0,"WVHT":1.5,"DPD":13.5,"MWD":90}]`
		obs, err := ParseJSON(body, testStation)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), obs.Timestamp)
		assert.Equal(t, 4.9, *obs.WaveHeightFt)
	})

	t.Run("station falls back to record", func(t *testing.T) {
		body := `{"station":"44013","time":"2024-01-15 12:00","WVHT":"1.0"}`
		obs, err := ParseJSON(body, "")
		require.NoError(t, err)
		assert.Equal(t, "44013", obs.StationID)
	})

	t.Run("no parseable time", func(t *testing.T) {
		_, err := ParseJSON(`[{"WVHT":"1.0"}]`, testStation)
		requireParseError(t, err, "parseable time")
	})

	t.Run("invalid array", func(t *testing.T) {
		_, err := ParseJSON(`[{"WVHT":`, testStation)
		requireParseError(t, err, "decode json")
	})

	t.Run("no records", func(t *testing.T) {
		_, err := ParseJSON("garbage\nmore garbage\n", testStation)
		requireParseError(t, err, "no json records")
	})
}

func TestParseFeed_DetectsFormat(t *testing.T) {
	fromJSON, err := ParseFeed(readFixture(t, "41117.json"), testStation)
	require.NoError(t, err)
	fromText, err := ParseFeed(readFixture(t, "41117.txt"), testStation)
	require.NoError(t, err)

	assert.Equal(t, fromText.Timestamp, fromJSON.Timestamp)
	assert.Equal(t, *fromText.WaveHeightFt, *fromJSON.WaveHeightFt)
}

func TestMergeSpectral(t *testing.T) {
	standard, err := ParseText(readFixture(t, "41117.txt"), testStation)
	require.NoError(t, err)
	spectral, err := ParseText(readFixture(t, "41117.spec"), testStation)
	require.NoError(t, err)

	merged := MergeSpectral(standard, spectral)

	assert.Equal(t, testStation, merged.StationID)
	assert.Equal(t, 14.0, *merged.DominantPeriodS, "standard-only field kept")
	assert.Equal(t, 100.0, *merged.WindDirDeg)
	assert.Equal(t, 1.6, *merged.SwellHeightFt)
	assert.Equal(t, 14.3, *merged.SwellPeriodS)
	assert.Equal(t, 112.0, *merged.MeanWaveDirDeg, "spectral value wins")
	assert.Equal(t, "ESE", merged.DirectionText)

	// Inputs are not modified.
	assert.Equal(t, 110.0, *standard.MeanWaveDirDeg)
	assert.Nil(t, standard.SwellHeightFt)
}

func TestMergeSpectral_KeepsLaterTimestamp(t *testing.T) {
	early := Observation{StationID: testStation, Timestamp: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	late := Observation{StationID: testStation, Timestamp: time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)}

	assert.Equal(t, late.Timestamp, MergeSpectral(early, late).Timestamp)
	assert.Equal(t, late.Timestamp, MergeSpectral(late, early).Timestamp)
}

func TestIsNinesSentinel(t *testing.T) {
	tests := []struct {
		raw      string
		expected bool
	}{
		{"99", true},
		{"99.00", true},
		{"999", true},
		{"9999.0", true},
		{"9", false},
		{"9.9", false},
		{"19", false},
		{"99.5", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNinesSentinel(tt.raw))
		})
	}
}
