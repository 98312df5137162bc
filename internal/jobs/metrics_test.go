package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("rollover").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("rollover").End(boom), boom)
	m.AddMaterialized(3)
	m.AddMaterialized(0)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("rollover", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("rollover", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("rollover")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.records))
}

func TestNilMetricsTracker(t *testing.T) {
	var m *Metrics
	m.AddMaterialized(5)
	require.NoError(t, m.Track("rollover").End(nil))
}
