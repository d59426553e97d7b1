package domain

import "strings"

// Canonical column names written to the raw and alert tabs.
const (
	FieldTimestamp      = "timestamp_utc"
	FieldStationID      = "station_id"
	FieldWaveHeight     = "wave_height_ft"
	FieldDominantPeriod = "dominant_period_s"
	FieldAveragePeriod  = "average_period_s"
	FieldMeanWaveDir    = "mean_wave_dir_deg"
	FieldSwellHeight    = "swell_height_ft"
	FieldSwellPeriod    = "swell_period_s"
	FieldDirectionText  = "direction_text"
	FieldSwellDir       = "swell_dir_deg"
	FieldWindDir        = "wind_dir_deg"
)

// RawColumns is the default column order of the raw data tab.
var RawColumns = []string{
	FieldTimestamp,
	FieldStationID,
	FieldWaveHeight,
	FieldDominantPeriod,
	FieldAveragePeriod,
	FieldMeanWaveDir,
	FieldSwellHeight,
	FieldSwellPeriod,
	FieldDirectionText,
	FieldSwellDir,
	FieldWindDir,
}

// unit describes how a feed value is normalized on the way in.
type unit int

const (
	unitMeters  unit = iota // converted to feet
	unitSeconds             // kept as reported
	unitDegrees             // validated to [0, 360)
)

// measurement ties a canonical column to the feed header codes that carry it.
// Codes are lowercase; the first code is the NDBC name, later ones cover the
// long-form headers some exports use.
type measurement struct {
	field string
	codes []string
	unit  unit
}

// measurements is the single alias table shared by the parser (feed code ->
// column) and the evaluator (column and code aliases per logical input).
var measurements = []measurement{
	{FieldWaveHeight, []string{"wvht", "wave_height_m", "wave_height"}, unitMeters},
	{FieldDominantPeriod, []string{"dpd", "dominant_period", "dominant_period_s"}, unitSeconds},
	{FieldAveragePeriod, []string{"apd", "average_period", "average_period_s"}, unitSeconds},
	{FieldMeanWaveDir, []string{"mwd", "mean_wave_dir", "mean_wave_dir_deg"}, unitDegrees},
	{FieldSwellHeight, []string{"swh", "swell_height_m", "swell_height"}, unitMeters},
	{FieldSwellPeriod, []string{"swp", "swell_period", "swell_period_s"}, unitSeconds},
	{FieldSwellDir, []string{"swd", "swell_dir", "swell_dir_deg"}, unitDegrees},
	{FieldWindDir, []string{"wdir", "wind_dir", "wind_dir_deg"}, unitDegrees},
}

// measurementForCode returns the measurement a lowercase header token maps to.
func measurementForCode(code string) (measurement, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, m := range measurements {
		for _, c := range m.codes {
			if c == code {
				return m, true
			}
		}
	}
	return measurement{}, false
}

// Evaluator input aliases, highest priority first. Height aliases only name
// values already in feet; raw NDBC height codes are meters and are excluded.
var (
	swellPeriodAliases = []string{FieldSwellPeriod, "SwP", FieldDominantPeriod, "DPD"}
	swellHeightAliases = []string{FieldSwellHeight, "SwH_ft", FieldWaveHeight, "WVHT_ft"}
	swellDirAliases    = []string{FieldSwellDir, "SwD_deg", FieldMeanWaveDir, "MWD", FieldWindDir, "WDIR"}
	waveHeightAliases  = []string{FieldWaveHeight, "WVHT_ft"}
	meanWaveDirAliases = []string{FieldMeanWaveDir, "MWD", FieldWindDir, "WDIR"}
)

// IsKnownColumn reports whether name is a raw tab column.
func IsKnownColumn(name string) bool {
	for _, c := range RawColumns {
		if c == name {
			return true
		}
	}
	return false
}
