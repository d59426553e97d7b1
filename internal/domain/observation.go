package domain

import (
	"strconv"
	"time"
)

// Observation is one reading from one station at one timestamp. Optional
// measurements are nil when the feed reported them missing.
type Observation struct {
	StationID string    `json:"station_id"`
	Timestamp time.Time `json:"timestamp_utc"`

	WaveHeightFt    *float64 `json:"wave_height_ft"`
	DominantPeriodS *float64 `json:"dominant_period_s"`
	AveragePeriodS  *float64 `json:"average_period_s"`
	MeanWaveDirDeg  *float64 `json:"mean_wave_dir_deg"`
	SwellHeightFt   *float64 `json:"swell_height_ft"`
	SwellPeriodS    *float64 `json:"swell_period_s"`
	SwellDirDeg     *float64 `json:"swell_dir_deg"`
	WindDirDeg      *float64 `json:"wind_dir_deg"`

	// DirectionText is the compass label of the swell direction, or of the
	// mean wave direction when the feed has no swell direction.
	DirectionText string `json:"direction_text,omitempty"`
}

// value returns the measurement stored under a canonical column name.
func (o Observation) value(field string) *float64 {
	switch field {
	case FieldWaveHeight:
		return o.WaveHeightFt
	case FieldDominantPeriod:
		return o.DominantPeriodS
	case FieldAveragePeriod:
		return o.AveragePeriodS
	case FieldMeanWaveDir:
		return o.MeanWaveDirDeg
	case FieldSwellHeight:
		return o.SwellHeightFt
	case FieldSwellPeriod:
		return o.SwellPeriodS
	case FieldSwellDir:
		return o.SwellDirDeg
	case FieldWindDir:
		return o.WindDirDeg
	default:
		return nil
	}
}

// set stores a measurement under a canonical column name.
func (o *Observation) set(field string, v float64) {
	p := &v
	switch field {
	case FieldWaveHeight:
		o.WaveHeightFt = p
	case FieldDominantPeriod:
		o.DominantPeriodS = p
	case FieldAveragePeriod:
		o.AveragePeriodS = p
	case FieldMeanWaveDir:
		o.MeanWaveDirDeg = p
	case FieldSwellHeight:
		o.SwellHeightFt = p
	case FieldSwellPeriod:
		o.SwellPeriodS = p
	case FieldSwellDir:
		o.SwellDirDeg = p
	case FieldWindDir:
		o.WindDirDeg = p
	}
}

// deriveDirectionText fills DirectionText from the swell direction, falling
// back to the mean wave direction.
func (o *Observation) deriveDirectionText() {
	o.DirectionText = ""
	switch {
	case o.SwellDirDeg != nil:
		o.DirectionText = CompassText(*o.SwellDirDeg)
	case o.MeanWaveDirDeg != nil:
		o.DirectionText = CompassText(*o.MeanWaveDirDeg)
	}
}

// Cell renders one column of the observation as a sheet cell: RFC 3339 for
// the timestamp, float64 for present measurements, "" for absent ones.
func (o Observation) Cell(column string) any {
	switch column {
	case FieldTimestamp:
		return o.Timestamp.UTC().Format(time.RFC3339)
	case FieldStationID:
		return o.StationID
	case FieldDirectionText:
		return o.DirectionText
	}
	if v := o.value(column); v != nil {
		return *v
	}
	return ""
}

// Row renders the observation in the given column order.
func (o Observation) Row(columns []string) []any {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = o.Cell(c)
	}
	return row
}

// Record converts the observation to evaluator input keyed by canonical
// column names. Absent measurements are omitted.
func (o Observation) Record() Record {
	rec := Record{
		FieldTimestamp: o.Timestamp.UTC().Format(time.RFC3339),
		FieldStationID: o.StationID,
	}
	if o.DirectionText != "" {
		rec[FieldDirectionText] = o.DirectionText
	}
	for _, m := range measurements {
		if v := o.value(m.field); v != nil {
			rec[m.field] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	return rec
}

// Record is a flat row keyed by column or feed names, as read back from a
// tab or produced by Observation.Record.
type Record map[string]string

// RecordFromRow zips a header with a row of cells. Missing trailing cells
// become empty strings.
func RecordFromRow(header, cells []string) Record {
	rec := make(Record, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(cells) {
			rec[h] = cells[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}

func float64Ptr(v float64) *float64 { return &v }
