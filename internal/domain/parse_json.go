package domain

import (
	"bufio"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the timestamp formats seen in JSON renditions of the feed.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// jsonTimeKeys hold a full timestamp; jsonDateKeys hold its parts.
var (
	jsonTimeKeys = []string{"time", "timestamp", "timestamp_utc", "datetime"}
	jsonDateKeys = [5][]string{
		{"yy", "#yy", "yyyy", "year", "yr"},
		{"mm", "mo", "month"},
		{"dd", "dy", "day"},
		{"hh", "hr", "hour"},
		{"mn", "mi", "min", "minute"},
	}
)

// ParseJSON parses a JSON feed body, either an array of objects or one
// object per line, into the Observation for its most recent record.
func ParseJSON(body, stationID string) (Observation, error) {
	stationID = strings.TrimSpace(stationID)

	records, err := decodeJSONRecords(body)
	if err != nil {
		return Observation{}, parseErrorf(stationID, "decode json: %v", err)
	}
	if len(records) == 0 {
		return Observation{}, parseErrorf(stationID, "no json records")
	}

	var (
		best     map[string]string
		bestTime time.Time
	)
	for _, rec := range records {
		ts, ok := jsonTimestamp(rec)
		if !ok {
			continue
		}
		if best == nil || ts.After(bestTime) {
			best, bestTime = rec, ts
		}
	}
	if best == nil {
		return Observation{}, parseErrorf(stationID, "no json record with a parseable time")
	}

	if stationID == "" {
		stationID = firstNonEmpty(best, "station_id", "station")
	}
	if stationID == "" {
		return Observation{}, parseErrorf(stationID, "station id is empty")
	}

	obs := Observation{StationID: stationID, Timestamp: bestTime}
	for key, raw := range best {
		m, ok := measurementForCode(key)
		if !ok {
			continue
		}
		if v, ok := parseMeasurement(m, raw); ok {
			obs.set(m.field, v)
		}
	}
	obs.deriveDirectionText()
	return obs, nil
}

// decodeJSONRecords returns every object in the body with lowercase keys and
// string values. Lines that are not JSON objects are skipped.
func decodeJSONRecords(body string) ([]map[string]string, error) {
	trimmed := strings.TrimSpace(body)

	if strings.HasPrefix(trimmed, "[") {
		var arr []map[string]any
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, err
		}
		out := make([]map[string]string, 0, len(arr))
		for _, obj := range arr {
			out = append(out, flattenJSON(obj))
		}
		return out, nil
	}

	var single map[string]any
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		return []map[string]string{flattenJSON(single)}, nil
	}

	var out []map[string]string
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		out = append(out, flattenJSON(obj))
	}
	return out, scanner.Err()
}

func flattenJSON(obj map[string]any) map[string]string {
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		out[strings.ToLower(strings.TrimSpace(k))] = jsonString(v)
	}
	return out
}

func jsonString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func jsonTimestamp(rec map[string]string) (time.Time, bool) {
	if s := firstNonEmpty(rec, jsonTimeKeys...); s != "" {
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC().Truncate(time.Minute), true
			}
		}
		return time.Time{}, false
	}

	var parts [5]int
	for role, keys := range jsonDateKeys {
		s := firstNonEmpty(rec, keys...)
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		parts[role] = int(n)
	}
	return buildTimestamp(parts[0], parts[1], parts[2], parts[3], parts[4])
}

func firstNonEmpty(rec map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(rec[k]); v != "" {
			return v
		}
	}
	return ""
}

// MergeSpectral overlays a spectral (.spec) observation on a standard one.
// Every measurement the spectral feed reports wins over the standard value;
// the later of the two timestamps is kept.
func MergeSpectral(standard, spectral Observation) Observation {
	out := standard
	for _, m := range measurements {
		if v := spectral.value(m.field); v != nil {
			out.set(m.field, *v)
		}
	}
	if spectral.Timestamp.After(out.Timestamp) {
		out.Timestamp = spectral.Timestamp
	}
	if out.StationID == "" {
		out.StationID = spectral.StationID
	}
	out.deriveDirectionText()
	return out
}
