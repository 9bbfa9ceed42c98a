package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerCountsOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	_ = m.Track("logistics:reconcile").End(nil)
	err := m.Track("logistics:reconcile").End(errors.New("boom"))

	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("logistics:reconcile", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("logistics:reconcile", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("logistics:reconcile")))
}

func TestReconciliationGaugesResetMissingStates(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	states := []string{"pending", "partial", "balanced"}

	m.SetReconciliationStates(states, map[string]int{"pending": 2, "balanced": 1})
	m.SetReconciliationStates(states, map[string]int{"balanced": 3})
	m.SetDivergences(4)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.reconciliations.WithLabelValues("pending")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconciliations.WithLabelValues("balanced")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.divergences))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.SetDivergences(1)
	m.SetReconciliationStates([]string{"pending"}, nil)
	assert.NoError(t, m.Track("x").End(nil))
}
