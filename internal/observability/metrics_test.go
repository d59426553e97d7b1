package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Unregistered(t *testing.T) {
	m := NewMetricsForTesting()
	m.StationsProcessed.WithLabelValues("ok").Inc()
	m.StationsProcessed.WithLabelValues("ok").Inc()
	m.AlertsMatched.WithLabelValues("Longboard").Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.StationsProcessed.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertsMatched.WithLabelValues("Longboard")), 0)

	// A second set must not collide with the first.
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewMetricsForTesting().RunsTotal))
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swell_alert.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go_goroutines")
}
