package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

// Outcome labels how a station fared in a run.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeFetchError Outcome = "fetch_error"
	OutcomeParseError Outcome = "parse_error"
	OutcomeWriteError Outcome = "write_error"
	OutcomeCanceled   Outcome = "canceled"
)

// StationResult is the per-station record of one run.
type StationResult struct {
	Station     string
	Outcome     Outcome
	Err         error
	Observation *domain.Observation
	Alerts      []domain.AlertResult
	WriteErrors int
}

// Processed reports whether the station's feed was fetched and parsed.
// A station with write errors still counts: its observation was evaluated.
func (r StationResult) Processed() bool {
	return r.Outcome == OutcomeOK || r.Outcome == OutcomeWriteError
}

// MatchCount returns the number of rules that matched.
func (r StationResult) MatchCount() int {
	n := 0
	for _, a := range r.Alerts {
		if a.Match {
			n++
		}
	}
	return n
}

// Summary aggregates one run.
type Summary struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Stations    []StationResult
	Matches     map[domain.Category]int
	WriteErrors int // tab-level failures: ensure and status writes
}

func newSummary(start time.Time) Summary {
	return Summary{StartedAt: start, Matches: make(map[domain.Category]int, len(domain.Categories))}
}

func (s *Summary) add(r StationResult) {
	s.Stations = append(s.Stations, r)
	for _, a := range r.Alerts {
		if a.Match {
			s.Matches[a.Category]++
		}
	}
}

// Processed returns how many stations were fetched and parsed.
func (s Summary) Processed() int {
	n := 0
	for _, r := range s.Stations {
		if r.Processed() {
			n++
		}
	}
	return n
}

// Failed reports whether stations were attempted and none was processed.
func (s Summary) Failed() bool {
	return len(s.Stations) > 0 && s.Processed() == 0
}

// Render draws the run as a terminal table, one row per station.
func (s Summary) Render() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	failStyle := cellStyle.Foreground(lipgloss.Color("9"))

	rows := make([][]string, 0, len(s.Stations))
	for _, r := range s.Stations {
		rows = append(rows, stationRow(r))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STATION", "OUTCOME", "OBSERVED", "HEIGHT FT", "PERIOD S", "DIR", "ALERTS").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(s.Stations) && !s.Stations[row].Processed():
				return failStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%d/%d stations processed, longboard=%d shortboard=%d short_period=%d\n",
		s.Processed(), len(s.Stations),
		s.Matches[domain.Longboard], s.Matches[domain.Shortboard], s.Matches[domain.ShortPeriod])
	return b.String()
}

func stationRow(r StationResult) []string {
	if r.Observation == nil {
		return []string{r.Station, string(r.Outcome), "-", "-", "-", "-", "-"}
	}
	o := r.Observation

	height := o.SwellHeightFt
	if height == nil {
		height = o.WaveHeightFt
	}
	period := o.SwellPeriodS
	if period == nil {
		period = o.DominantPeriodS
	}

	var rules []string
	for _, a := range r.Alerts {
		if a.Match {
			rules = append(rules, string(a.Category))
		}
	}
	alerts := "-"
	if len(rules) > 0 {
		alerts = strings.Join(rules, ", ")
	}

	dir := o.DirectionText
	if dir == "" {
		dir = "-"
	}

	return []string{
		r.Station,
		string(r.Outcome),
		o.Timestamp.UTC().Format("2006-01-02 15:04"),
		formatOptional(height),
		formatOptional(period),
		dir,
		alerts,
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Report is the JSON view of a run served by the status endpoint.
type Report struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Processed  int            `json:"processed"`
	Total      int            `json:"total"`
	Matches    map[string]int `json:"matches"`
	Stations   []StationEntry `json:"stations"`
}

// StationEntry is one station in a Report.
type StationEntry struct {
	Station     string              `json:"station_id"`
	Outcome     Outcome             `json:"outcome"`
	Error       string              `json:"error,omitempty"`
	Observation *domain.Observation `json:"observation,omitempty"`
	Alerts      []string            `json:"alerts,omitempty"`
}

// Report converts the summary for JSON output.
func (s Summary) Report() Report {
	r := Report{
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Processed:  s.Processed(),
		Total:      len(s.Stations),
		Matches:    make(map[string]int, len(domain.Categories)),
		Stations:   make([]StationEntry, 0, len(s.Stations)),
	}
	for _, c := range domain.Categories {
		r.Matches[string(c)] = s.Matches[c]
	}
	for _, st := range s.Stations {
		e := StationEntry{Station: st.Station, Outcome: st.Outcome, Observation: st.Observation}
		if st.Err != nil {
			e.Error = st.Err.Error()
		}
		for _, a := range st.Alerts {
			if a.Match {
				e.Alerts = append(e.Alerts, string(a.Category))
			}
		}
		r.Stations = append(r.Stations, e)
	}
	return r
}
