package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
	"github.com/couchcryptid/swell-alert-etl/internal/observability"
)

// FeedFetcher retrieves the raw body of one station feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, station string, feed domain.Feed) (string, error)
}

// SheetGateway is the row-oriented tabular backend. Rows are written in tab
// column order; cells are strings or float64.
type SheetGateway interface {
	EnsureTab(ctx context.Context, name string, header []string) error
	AppendRows(ctx context.Context, name string, rows [][]any) error
	WriteStatus(ctx context.Context, name, message string) error
	ReadLatestRow(ctx context.Context, name string) (domain.Record, bool, error)
}

// AlertPublisher forwards matched alerts to an external consumer.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert domain.AlertEvent) error
}

// Column names only used on alert tabs.
const (
	ColumnLoggedAt = "logged_at_utc"
	ColumnRule     = "rule"
	ColumnDetails  = "details"
)

// AlertColumns is the column order of every alert tab.
var AlertColumns = []string{
	ColumnLoggedAt,
	domain.FieldTimestamp,
	domain.FieldStationID,
	domain.FieldWaveHeight,
	domain.FieldDominantPeriod,
	domain.FieldMeanWaveDir,
	domain.FieldSwellHeight,
	domain.FieldSwellPeriod,
	domain.FieldSwellDir,
	domain.FieldDirectionText,
	ColumnRule,
	ColumnDetails,
}

// Options configures which feeds are read and where rows go.
type Options struct {
	Tabs            domain.Tabs
	RawColumns      []string    // defaults to domain.RawColumns
	Feed            domain.Feed // primary feed, FeedStandard or FeedJSON
	IncludeSpectral bool
}

// Pipeline sequences fetch, parse, evaluate, and write for each station.
type Pipeline struct {
	fetcher   FeedFetcher
	gateway   SheetGateway
	evaluator *domain.Evaluator
	publisher AlertPublisher
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu      sync.Mutex
	lastRun *Summary
}

// New creates a Pipeline. publisher may be nil to disable alert publishing.
func New(f FeedFetcher, g SheetGateway, e *domain.Evaluator, pub AlertPublisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if len(opts.RawColumns) == 0 {
		opts.RawColumns = domain.RawColumns
	}
	if opts.Feed == "" {
		opts.Feed = domain.FeedStandard
	}
	return &Pipeline{
		fetcher:   f,
		gateway:   g,
		evaluator: e,
		publisher: pub,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has processed at least one station.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any station yet")
	}
	return nil
}

// LastRun returns the summary of the most recent RunOnce.
func (p *Pipeline) LastRun() (Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRun == nil {
		return Summary{}, false
	}
	return *p.lastRun, true
}

// RunOnce processes every station in order and writes one status row per
// alert tab. A failing station is logged and skipped; the run itself never
// fails.
func (p *Pipeline) RunOnce(ctx context.Context, stations []string) Summary {
	start := clock.Now()
	p.metrics.RunsTotal.Inc()
	p.logger.Info("run started", "stations", len(stations))

	summary := newSummary(start)
	p.ensureTabs(ctx, &summary)

	for _, station := range stations {
		if ctx.Err() != nil {
			summary.add(StationResult{Station: station, Outcome: OutcomeCanceled, Err: ctx.Err()})
			p.metrics.StationsProcessed.WithLabelValues(string(OutcomeCanceled)).Inc()
			continue
		}
		res := p.processStation(ctx, station)
		p.metrics.StationsProcessed.WithLabelValues(string(res.Outcome)).Inc()
		summary.add(res)
	}

	p.writeStatusRows(ctx, &summary)
	summary.FinishedAt = clock.Now()

	p.metrics.RunDuration.Observe(summary.FinishedAt.Sub(start).Seconds())
	if summary.Processed() > 0 {
		p.ready.Store(true)
		p.metrics.LastSuccessfulRun.Set(float64(summary.FinishedAt.Unix()))
	}

	p.mu.Lock()
	p.lastRun = &summary
	p.mu.Unlock()

	p.logger.Info("run finished",
		"processed", summary.Processed(),
		"stations", len(stations),
		"longboard", summary.Matches[domain.Longboard],
		"shortboard", summary.Matches[domain.Shortboard],
		"short_period", summary.Matches[domain.ShortPeriod],
		"duration", summary.FinishedAt.Sub(start),
	)
	return summary
}

// EvaluateLatest evaluates the most recent row of the raw tab and logs any
// matches to the alert tabs. It returns an error only when the raw tab
// cannot be read.
func (p *Pipeline) EvaluateLatest(ctx context.Context) (Summary, error) {
	start := clock.Now()
	summary := newSummary(start)

	rec, ok, err := p.gateway.ReadLatestRow(ctx, p.opts.Tabs.Raw)
	if err != nil {
		return summary, fmt.Errorf("read latest row of %q: %w", p.opts.Tabs.Raw, err)
	}
	if !ok {
		p.logger.Info("no data in raw tab, nothing to evaluate", "tab", p.opts.Tabs.Raw)
		summary.FinishedAt = clock.Now()
		return summary, nil
	}

	p.ensureTabs(ctx, &summary)

	station := rec[domain.FieldStationID]
	if station == "" {
		station = rec["station"]
	}
	res := StationResult{Station: station, Outcome: OutcomeOK, Alerts: p.evaluator.Evaluate(rec)}
	cell := func(col string) any { return rec[col] }
	for _, alert := range res.Alerts {
		if !alert.Match {
			continue
		}
		p.metrics.AlertsMatched.WithLabelValues(string(alert.Category)).Inc()
		if err := p.appendRows(ctx, p.opts.Tabs.Alert(alert.Category), alertRow(start, cell, alert)); err != nil {
			res.WriteErrors++
		}
	}
	if res.WriteErrors > 0 {
		res.Outcome = OutcomeWriteError
	}
	summary.add(res)

	p.writeStatusRows(ctx, &summary)
	summary.FinishedAt = clock.Now()
	return summary, nil
}

func (p *Pipeline) processStation(ctx context.Context, station string) StationResult {
	logger := p.logger.With("station", station)

	obs, err := p.observe(ctx, station)
	if err != nil {
		res := StationResult{Station: station, Outcome: classify(err), Err: err}
		logger.Warn("station skipped", "outcome", res.Outcome, "error", err)
		return res
	}

	now := clock.Now()
	res := StationResult{
		Station:     station,
		Outcome:     OutcomeOK,
		Observation: &obs,
		Alerts:      p.evaluator.EvaluateObservation(obs),
	}

	if err := p.appendRows(ctx, p.opts.Tabs.Raw, obs.Row(p.opts.RawColumns)); err != nil {
		res.WriteErrors++
	}

	for _, alert := range res.Alerts {
		logger.Debug("rule evaluated", "rule", alert.Category, "match", alert.Match, "details", alert.Explanation)
		if !alert.Match {
			continue
		}
		p.metrics.AlertsMatched.WithLabelValues(string(alert.Category)).Inc()
		if err := p.appendRows(ctx, p.opts.Tabs.Alert(alert.Category), alertRow(now, obs.Cell, alert)); err != nil {
			res.WriteErrors++
		}
		p.publish(ctx, domain.AlertEvent{
			Station:     station,
			Rule:        alert.Category,
			Explanation: alert.Explanation,
			LoggedAt:    now,
			Observation: obs,
		})
	}

	if res.WriteErrors > 0 {
		res.Outcome = OutcomeWriteError
	}
	logger.Info("station processed",
		"observed_at", obs.Timestamp,
		"matches", res.MatchCount(),
		"write_errors", res.WriteErrors,
	)
	return res
}

// ensureTabs creates the raw and alert tabs with headers. Failures are
// logged; the appends that follow report their own errors.
func (p *Pipeline) ensureTabs(ctx context.Context, summary *Summary) {
	tabs := []struct {
		name   string
		header []string
	}{
		{p.opts.Tabs.Raw, p.opts.RawColumns},
		{p.opts.Tabs.Longboard, AlertColumns},
		{p.opts.Tabs.Shortboard, AlertColumns},
		{p.opts.Tabs.ShortPeriod, AlertColumns},
	}
	for _, tab := range tabs {
		err := p.gateway.EnsureTab(ctx, tab.name, tab.header)
		p.countWrite("ensure", err)
		if err != nil {
			summary.WriteErrors++
			p.logger.Error("ensure tab failed", "error", &domain.WriteError{Tab: tab.name, Err: err})
		}
	}
}

// writeStatusRows records the run outcome on every alert tab so that a run
// with no matches is distinguishable from a run that did not happen.
func (p *Pipeline) writeStatusRows(ctx context.Context, summary *Summary) {
	for _, cat := range domain.Categories {
		tab := p.opts.Tabs.Alert(cat)
		msg := statusMessage(cat, *summary)
		err := p.gateway.WriteStatus(ctx, tab, msg)
		p.countWrite("status", err)
		if err != nil {
			summary.WriteErrors++
			p.logger.Error("write status failed", "error", &domain.WriteError{Tab: tab, Err: err})
			continue
		}
		p.logger.Info("status written", "tab", tab, "status", msg)
	}
}

func (p *Pipeline) appendRows(ctx context.Context, tab string, row []any) error {
	err := p.gateway.AppendRows(ctx, tab, [][]any{row})
	p.countWrite("append", err)
	if err != nil {
		werr := &domain.WriteError{Tab: tab, Err: err}
		p.logger.Error("append failed", "error", werr)
		return werr
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, event domain.AlertEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishAlert(ctx, event); err != nil {
		p.metrics.AlertsPublished.WithLabelValues("error").Inc()
		p.logger.Error("publish alert failed", "station", event.Station, "rule", event.Rule, "error", err)
		return
	}
	p.metrics.AlertsPublished.WithLabelValues("success").Inc()
}

func (p *Pipeline) countWrite(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.metrics.SheetWrites.WithLabelValues(op, outcome).Inc()
}

// alertRow renders one alert tab row. cell supplies observation columns.
func alertRow(loggedAt time.Time, cell func(col string) any, alert domain.AlertResult) []any {
	row := make([]any, len(AlertColumns))
	for i, col := range AlertColumns {
		switch col {
		case ColumnLoggedAt:
			row[i] = loggedAt.UTC().Format(time.RFC3339)
		case ColumnRule:
			row[i] = string(alert.Category)
		case ColumnDetails:
			row[i] = alert.Explanation
		default:
			row[i] = cell(col)
		}
	}
	return row
}

// statusMessage is the status row text for one alert tab.
func statusMessage(cat domain.Category, s Summary) string {
	ts := clock.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	total := len(s.Stations)
	processed := s.Processed()

	switch n := s.Matches[cat]; {
	case processed == 0:
		return fmt.Sprintf("Run failed at %s: 0/%d stations processed", ts, total)
	case n == 0:
		return fmt.Sprintf("No %s alerts at %s (%d/%d stations)", cat, ts, processed, total)
	default:
		return fmt.Sprintf("%d %s alert(s) at %s (%d/%d stations)", n, cat, ts, processed, total)
	}
}

// classify maps a station error to its outcome label.
func classify(err error) Outcome {
	var (
		fetchErr *domain.FetchError
		parseErr *domain.ParseError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.As(err, &parseErr):
		return OutcomeParseError
	case errors.As(err, &fetchErr):
		return OutcomeFetchError
	default:
		return OutcomeFetchError
	}
}
