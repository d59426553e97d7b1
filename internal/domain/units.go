package domain

import (
	"math"
	"strings"
)

// FeetPerMeter converts feed heights (meters) to feet.
const FeetPerMeter = 3.28084

// compassPoints is ordered clockwise from north in 22.5 degree steps.
var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// MetersToFeet converts meters to feet rounded to one decimal.
func MetersToFeet(m float64) float64 {
	return RoundHalfUp(m*FeetPerMeter, 1)
}

// RoundHalfUp rounds to the given number of decimals with ties going away
// from zero, so 1.25 becomes 1.3 rather than 1.2. The small epsilon absorbs
// binary representation error such as 1.15*10 = 11.499999999999998.
func RoundHalfUp(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	if v < 0 {
		return -math.Floor(-v*p+0.5+1e-9) / p
	}
	return math.Floor(v*p+0.5+1e-9) / p
}

// CompassText maps a bearing in degrees true to a 16-point compass label.
// Ties round up: 22.5 is NNE, 11.25 is NNE. 360 wraps to N.
func CompassText(deg float64) string {
	idx := int(math.Floor(deg/22.5+0.5)) % len(compassPoints)
	if idx < 0 {
		idx += len(compassPoints)
	}
	return compassPoints[idx]
}

// CompassDegrees is the inverse of CompassText: the center bearing of a
// compass label. The second result is false for unknown labels.
func CompassDegrees(label string) (float64, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for i, p := range compassPoints {
		if p == label {
			return float64(i) * 22.5, true
		}
	}
	return 0, false
}

// InDirectionWindow reports whether deg lies in [lo, hi], inclusive.
func InDirectionWindow(deg, lo, hi float64) bool {
	return deg >= lo && deg <= hi
}

// normalizeDirection maps a bearing into [0, 360). 360 is reported by some
// buoys for due north. Values outside [0, 360] are invalid.
func normalizeDirection(deg float64) (float64, bool) {
	if deg < 0 || deg > 360 || math.IsNaN(deg) {
		return 0, false
	}
	if deg == 360 {
		return 0, true
	}
	return deg, true
}
