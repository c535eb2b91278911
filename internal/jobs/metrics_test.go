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

	require.NoError(t, m.Track("mail:send").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("mail:send").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:send", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:send", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("mail:send")))
}

func TestAddFlagged(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddFlagged("long_storage", 3)
	m.AddFlagged("long_storage", 0)
	require.Equal(t, 3.0, testutil.ToFloat64(m.flagged.WithLabelValues("long_storage")))

	var nilMetrics *Metrics
	nilMetrics.AddFlagged("long_storage", 1)
	require.NoError(t, nilMetrics.Track("x").End(nil))
}
