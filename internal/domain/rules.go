package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Default thresholds. Heights are feet, periods seconds, directions degrees true.
const (
	DefaultDirectionMin = 25.0  // NE
	DefaultDirectionMax = 160.0 // SE

	DefaultLongboardMinPeriod  = 13.0
	DefaultLongboardMinHeight  = 0.7
	DefaultShortboardMinPeriod = 13.0
	DefaultShortboardMinHeight = 1.6
	DefaultShortPeriodMinWave  = 3.0
)

// Category names an alert rule.
type Category string

const (
	Longboard   Category = "Longboard"
	Shortboard  Category = "Shortboard"
	ShortPeriod Category = "Short Period"
)

// Categories lists every rule in evaluation order.
var Categories = []Category{Longboard, Shortboard, ShortPeriod}

// Thresholds holds every tunable rule constant. All comparisons are inclusive.
type Thresholds struct {
	DirectionMin float64 `yaml:"direction_min" json:"direction_min"`
	DirectionMax float64 `yaml:"direction_max" json:"direction_max"`

	LongboardMinPeriod  float64 `yaml:"longboard_min_period_s" json:"longboard_min_period_s"`
	LongboardMinHeight  float64 `yaml:"longboard_min_height_ft" json:"longboard_min_height_ft"`
	ShortboardMinPeriod float64 `yaml:"shortboard_min_period_s" json:"shortboard_min_period_s"`
	ShortboardMinHeight float64 `yaml:"shortboard_min_height_ft" json:"shortboard_min_height_ft"`
	ShortPeriodMinWave  float64 `yaml:"short_period_min_wave_ft" json:"short_period_min_wave_ft"`
}

// DefaultThresholds returns the stock rule constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DirectionMin:        DefaultDirectionMin,
		DirectionMax:        DefaultDirectionMax,
		LongboardMinPeriod:  DefaultLongboardMinPeriod,
		LongboardMinHeight:  DefaultLongboardMinHeight,
		ShortboardMinPeriod: DefaultShortboardMinPeriod,
		ShortboardMinHeight: DefaultShortboardMinHeight,
		ShortPeriodMinWave:  DefaultShortPeriodMinWave,
	}
}

// ThresholdOverrides is the operator-supplied subset of Thresholds. A nil
// field keeps the default; a present field wins, zero included.
type ThresholdOverrides struct {
	DirectionMin *float64 `yaml:"direction_min" json:"direction_min,omitempty"`
	DirectionMax *float64 `yaml:"direction_max" json:"direction_max,omitempty"`

	LongboardMinPeriod  *float64 `yaml:"longboard_min_period_s" json:"longboard_min_period_s,omitempty"`
	LongboardMinHeight  *float64 `yaml:"longboard_min_height_ft" json:"longboard_min_height_ft,omitempty"`
	ShortboardMinPeriod *float64 `yaml:"shortboard_min_period_s" json:"shortboard_min_period_s,omitempty"`
	ShortboardMinHeight *float64 `yaml:"shortboard_min_height_ft" json:"shortboard_min_height_ft,omitempty"`
	ShortPeriodMinWave  *float64 `yaml:"short_period_min_wave_ft" json:"short_period_min_wave_ft,omitempty"`
}

// Merge returns t with every field set in o applied.
func (t Thresholds) Merge(o ThresholdOverrides) Thresholds {
	for _, f := range []struct {
		dst *float64
		src *float64
	}{
		{&t.DirectionMin, o.DirectionMin},
		{&t.DirectionMax, o.DirectionMax},
		{&t.LongboardMinPeriod, o.LongboardMinPeriod},
		{&t.LongboardMinHeight, o.LongboardMinHeight},
		{&t.ShortboardMinPeriod, o.ShortboardMinPeriod},
		{&t.ShortboardMinHeight, o.ShortboardMinHeight},
		{&t.ShortPeriodMinWave, o.ShortPeriodMinWave},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return t
}

// AlertResult is the outcome of one rule for one record.
type AlertResult struct {
	Category    Category `json:"category"`
	Match       bool     `json:"match"`
	Explanation string   `json:"explanation"`
}

// Evaluator classifies records against the three alert rules. It has no
// side effects and never fails: unresolvable inputs are a no-match.
type Evaluator struct {
	t Thresholds
}

// NewEvaluator creates an Evaluator with the given thresholds.
func NewEvaluator(t Thresholds) *Evaluator {
	return &Evaluator{t: t}
}

// Thresholds returns the thresholds the evaluator was built with.
func (e *Evaluator) Thresholds() Thresholds { return e.t }

// Evaluate runs every rule against rec, in Categories order.
func (e *Evaluator) Evaluate(rec Record) []AlertResult {
	return []AlertResult{e.Longboard(rec), e.Shortboard(rec), e.ShortPeriod(rec)}
}

// EvaluateObservation runs every rule against an Observation.
func (e *Evaluator) EvaluateObservation(obs Observation) []AlertResult {
	return e.Evaluate(obs.Record())
}

// Longboard matches long-period swell with at least a small height.
func (e *Evaluator) Longboard(rec Record) AlertResult {
	return e.longPeriod(Longboard, rec, e.t.LongboardMinPeriod, e.t.LongboardMinHeight)
}

// Shortboard matches long-period swell with a rideable height.
func (e *Evaluator) Shortboard(rec Record) AlertResult {
	return e.longPeriod(Shortboard, rec, e.t.ShortboardMinPeriod, e.t.ShortboardMinHeight)
}

func (e *Evaluator) longPeriod(cat Category, rec Record, minPeriod, minHeight float64) AlertResult {
	period := resolve(rec, swellPeriodAliases)
	height := resolve(rec, swellHeightAliases)
	dir := resolve(rec, swellDirAliases)

	match := period.atLeast(minPeriod) && height.atLeast(minHeight) && e.inWindow(dir)
	return AlertResult{
		Category: cat,
		Match:    match,
		Explanation: strings.Join([]string{
			period.describe("period", "s"),
			height.describe("height", "ft"),
			dir.describe("dir", "deg"),
		}, " "),
	}
}

// ShortPeriod matches large total wave height from the window, regardless of period.
func (e *Evaluator) ShortPeriod(rec Record) AlertResult {
	height := resolve(rec, waveHeightAliases)
	dir := resolve(rec, meanWaveDirAliases)

	return AlertResult{
		Category:    ShortPeriod,
		Match:       height.atLeast(e.t.ShortPeriodMinWave) && e.inWindow(dir),
		Explanation: height.describe("height", "ft") + " " + dir.describe("dir", "deg"),
	}
}

func (e *Evaluator) inWindow(dir resolved) bool {
	return dir.ok && InDirectionWindow(dir.value, e.t.DirectionMin, e.t.DirectionMax)
}

// resolved is the outcome of an alias lookup.
type resolved struct {
	value float64
	key   string
	ok    bool
}

// resolve returns the first alias whose value is present, non-empty, and numeric.
func resolve(rec Record, aliases []string) resolved {
	for _, k := range aliases {
		s, ok := rec[k]
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		return resolved{value: v, key: k, ok: true}
	}
	return resolved{}
}

func (r resolved) atLeast(min float64) bool {
	return r.ok && r.value >= min
}

func (r resolved) describe(label, unit string) string {
	if !r.ok {
		return label + "=missing"
	}
	return fmt.Sprintf("%s=%s%s(%s)", label, strconv.FormatFloat(r.value, 'f', -1, 64), unit, r.key)
}
