package domain

import "time"

// AlertEvent is a matched rule for one observation, as published to the
// alert topic.
type AlertEvent struct {
	Station     string      `json:"station_id"`
	Rule        Category    `json:"rule"`
	Explanation string      `json:"details"`
	LoggedAt    time.Time   `json:"logged_at_utc"`
	Observation Observation `json:"observation"`
}

// Key identifies the event for partitioning and de-duplication downstream:
// the same station, rule and reading always produce the same key.
func (a AlertEvent) Key() string {
	return a.Station + "|" + string(a.Rule) + "|" + a.Observation.Timestamp.UTC().Format(time.RFC3339)
}
