package domain

import (
	"bufio"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// dateRoles lists the header tokens accepted for each timestamp column, in
// the order the columns are resolved. "mm" appears under both month and
// minute; sequential resolution gives the first occurrence to month.
var dateRoles = [5][]string{
	{"yy", "yyyy", "year", "yr"},
	{"mm", "mo", "month"},
	{"dd", "dy", "day"},
	{"hh", "hr", "hour"},
	{"mm", "mn", "mi", "min", "minute"},
}

// header is a located header line: the lowercase column tokens and the
// indexes of year, month, day, hour and minute.
type header struct {
	columns []string
	date    [5]int
}

// ParseFeed parses a feed body into the most recent Observation, detecting
// JSON (leading '[' or '{') versus whitespace/CSV text.
func ParseFeed(body, stationID string) (Observation, error) {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return ParseJSON(body, stationID)
	}
	return ParseText(body, stationID)
}

// ParseText parses an NDBC-style text body (standard or spectral) into the
// Observation for its most recent row.
func ParseText(body, stationID string) (Observation, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return Observation{}, parseErrorf(stationID, "station id is empty")
	}

	var (
		hdr       *header
		best      []string
		bestTime  time.Time
		shortRows int
	)

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if hdr == nil {
			hdr = findHeader(line)
			continue
		}

		cells := splitLine(line)
		if len(cells) < 5 {
			shortRows++
			continue
		}
		if !leadingNumeric(cells, 5) {
			continue
		}
		ts, ok := rowTimestamp(cells, hdr.date)
		if !ok {
			continue
		}
		if best == nil || ts.After(bestTime) {
			best, bestTime = cells, ts
		}
	}
	if err := scanner.Err(); err != nil {
		return Observation{}, parseErrorf(stationID, "read body: %v", err)
	}

	switch {
	case hdr == nil:
		return Observation{}, parseErrorf(stationID, "no header row with year/month/day/hour/minute columns")
	case best == nil && shortRows > 0:
		return Observation{}, parseErrorf(stationID, "data rows have fewer than five columns")
	case best == nil:
		return Observation{}, parseErrorf(stationID, "no numeric data row after header")
	}

	obs := Observation{StationID: stationID, Timestamp: bestTime}
	isDate := make(map[int]bool, 5)
	for _, idx := range hdr.date {
		isDate[idx] = true
	}
	for i, code := range hdr.columns {
		if isDate[i] || i >= len(best) {
			continue
		}
		m, ok := measurementForCode(code)
		if !ok {
			continue
		}
		if v, ok := parseMeasurement(m, best[i]); ok {
			obs.set(m.field, v)
		}
	}
	obs.deriveDirectionText()
	return obs, nil
}

// findHeader returns the header described by line, or nil when the line does
// not name all five date columns.
func findHeader(line string) *header {
	line = strings.TrimLeft(line, "#")
	cells := splitLine(line)
	cols := make([]string, len(cells))
	for i, c := range cells {
		cols[i] = strings.ToLower(strings.TrimLeft(strings.TrimSpace(c), "#"))
	}

	used := make(map[int]bool, 5)
	var h header
	for role, names := range dateRoles {
		idx := -1
		for i, c := range cols {
			if used[i] {
				continue
			}
			if contains(names, c) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		used[idx] = true
		h.date[role] = idx
	}
	h.columns = cols
	return &h
}

// splitLine tokenizes a line. Comma-separated lines keep empty cells so that
// columns stay aligned; anything else splits on runs of whitespace.
func splitLine(line string) []string {
	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return strings.FieldsFunc(line, unicode.IsSpace)
}

// leadingNumeric reports whether the first n cells all parse as numbers.
func leadingNumeric(cells []string, n int) bool {
	for _, c := range cells[:n] {
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			return false
		}
	}
	return true
}

// rowTimestamp builds the UTC minute timestamp from the date columns.
func rowTimestamp(cells []string, idx [5]int) (time.Time, bool) {
	var parts [5]int
	for role, i := range idx {
		if i >= len(cells) {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(cells[i])
		if err != nil {
			return time.Time{}, false
		}
		parts[role] = n
	}
	return buildTimestamp(parts[0], parts[1], parts[2], parts[3], parts[4])
}

// buildTimestamp validates date parts and expands two-digit years: 00-69 are
// 20xx, 70-99 are 19xx.
func buildTimestamp(year, month, day, hour, minute int) (time.Time, bool) {
	switch {
	case year < 0:
		return time.Time{}, false
	case year < 70:
		year += 2000
	case year < 100:
		year += 1900
	}
	if month < 1 || month > 12 || day < 1 || day > 31 ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if ts.Day() != day {
		return time.Time{}, false // e.g. Feb 30 normalized into March
	}
	return ts, true
}

// parseMeasurement normalizes one feed cell. The second result is false for
// missing sentinels and out-of-range values.
func parseMeasurement(m measurement, raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return 0, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if m.unit == unitDegrees {
			return CompassDegrees(raw)
		}
		return 0, false
	}

	switch m.unit {
	case unitMeters:
		if v < 0 || isNinesSentinel(raw) {
			return 0, false
		}
		return MetersToFeet(v), true
	case unitSeconds:
		if v < 0 || isNinesSentinel(raw) {
			return 0, false
		}
		return v, true
	default:
		return normalizeDirection(v)
	}
}

// isMissing reports the textual "no data" sentinels.
func isMissing(raw string) bool {
	return raw == "" || strings.EqualFold(raw, "MM") || strings.EqualFold(raw, "N/A")
}

// isNinesSentinel reports historical nine-padded values: 99, 99.0, 99.00,
// 999, 9999.0. A single 9 is a real reading.
func isNinesSentinel(raw string) bool {
	intPart, frac, _ := strings.Cut(raw, ".")
	if len(intPart) < 2 || strings.Trim(intPart, "9") != "" {
		return false
	}
	return strings.Trim(frac, "09") == ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
