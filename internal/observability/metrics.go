package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the alert pipeline.
type Metrics struct {
	RunsTotal         prometheus.Counter
	RunDuration       prometheus.Histogram
	LastSuccessfulRun prometheus.Gauge
	PipelineRunning   prometheus.Gauge

	StationsProcessed *prometheus.CounterVec // labels: outcome={ok,fetch_error,parse_error,write_error,canceled}
	AlertsMatched     *prometheus.CounterVec // labels: rule

	// Feed metrics.
	FeedRequests      *prometheus.CounterVec   // labels: feed={txt,spec,json}, outcome={success,error}
	FeedFetchDuration *prometheus.HistogramVec // labels: feed

	// Tabular backend metrics.
	SheetWrites *prometheus.CounterVec // labels: op={ensure,append,status}, outcome={success,error}

	AlertsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.LastSuccessfulRun,
		m.PipelineRunning,
		m.StationsProcessed,
		m.AlertsMatched,
		m.FeedRequests,
		m.FeedFetchDuration,
		m.SheetWrites,
		m.AlertsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swell_alert",
			Name:      "runs_total",
			Help:      "Total fetch-evaluate-write runs started.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swell_alert",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete run over all configured stations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swell_alert",
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last run that processed at least one station.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swell_alert",
			Name:      "pipeline_running",
			Help:      "1 while the scheduled pipeline is active, 0 when shut down.",
		}),
		StationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swell_alert",
			Name:      "stations_processed_total",
			Help:      "Stations processed per run by outcome.",
		}, []string{"outcome"}),
		AlertsMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swell_alert",
			Name:      "alerts_matched_total",
			Help:      "Rule matches by rule category.",
		}, []string{"rule"}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swell_alert",
			Name:      "feed_requests_total",
			Help:      "NDBC feed requests by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "swell_alert",
			Name:      "feed_fetch_duration_seconds",
			Help:      "NDBC feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"feed"}),
		SheetWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swell_alert",
			Name:      "sheet_writes_total",
			Help:      "Tabular backend writes by operation and outcome.",
		}, []string{"op", "outcome"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swell_alert",
			Name:      "alerts_published_total",
			Help:      "Alert events published to the alert topic by outcome.",
		}, []string{"outcome"}),
	}
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format, for one-shot runs that are never scraped.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
