package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs            *prometheus.CounterVec
	failures        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	reconciliations *prometheus.GaugeVec
	divergences     prometheus.Gauge
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetReconciliationStates replaces the per-state oil receipt gauge with the
// latest sweep. States missing from counts are reset to zero.
func (m *Metrics) SetReconciliationStates(states []string, counts map[string]int) {
	if m == nil {
		return
	}
	for _, state := range states {
		m.reconciliations.WithLabelValues(state).Set(float64(counts[state]))
	}
}

// SetDivergences records how many driver jobs disagree with their transport.
func (m *Metrics) SetDivergences(n int) {
	if m == nil {
		return
	}
	m.divergences.Set(float64(n))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reconciliations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "odyssey_logistics_oil_receipts",
		Help: "Oil receipts grouped by reconciliation state at the last sweep.",
	}, []string{"state"})
	divergences := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "odyssey_logistics_driver_job_divergences",
		Help: "Driver jobs whose status disagrees with their transport at the last sweep.",
	})
	registerer.MustRegister(runs, failures, duration, reconciliations, divergences)
	return &Metrics{
		runs:            runs,
		failures:        failures,
		duration:        duration,
		reconciliations: reconciliations,
		divergences:     divergences,
	}
}
