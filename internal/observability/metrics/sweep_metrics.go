package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SweepErrorTypeDeadlineExceeded = "deadline_exceeded"
	SweepErrorTypeDB               = "db"
	SweepErrorTypeBusinessRule     = "business_rule"
)

// SweepMetrics captures the nightly interest-recalculation sweep health.
type SweepMetrics struct {
	runs        prometheus.Counter
	runDuration prometheus.Observer
	runErrors   *prometheus.CounterVec
	swept       prometheus.Counter
	sweepErrors prometheus.Counter
	runLoopLag  prometheus.Observer
}

var (
	sweepMetricsOnce sync.Once
	sweepMetrics     *SweepMetrics
)

// Sweep returns the singleton sweep metrics registry.
func Sweep() *SweepMetrics {
	sweepMetricsOnce.Do(func() {
		sweepMetrics = newSweepMetrics(prometheus.DefaultRegisterer)
	})
	return sweepMetrics
}

func newSweepMetrics(registerer prometheus.Registerer) *SweepMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxsuite_sweep_runs_total",
		Help: "Interest recalculation sweep runs.",
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxsuite_sweep_duration_seconds",
		Help:    "Sweep latency to keep overnight recalculation inside its window.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	})
	runErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxsuite_sweep_errors_total",
		Help: "Sweep errors by low-cardinality type.",
	}, []string{"error_type"})
	swept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxsuite_sweep_assessments_total",
		Help: "Assessments whose schedules were refreshed by the sweep.",
	})
	sweepErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxsuite_sweep_assessment_errors_total",
		Help: "Assessments the sweep failed to refresh.",
	})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxsuite_sweep_runloop_lag_seconds",
		Help:    "Sweep loop lag beyond the configured interval.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 300},
	})

	registerer.MustRegister(runs, runDuration, runErrors, swept, sweepErrors, runLoopLag)

	return &SweepMetrics{
		runs:        runs,
		runDuration: runDuration,
		runErrors:   runErrors,
		swept:       swept,
		sweepErrors: sweepErrors,
		runLoopLag:  runLoopLag,
	}
}

// IncRun increments the sweep run counter.
func (m *SweepMetrics) IncRun() {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.Inc()
}

// ObserveRunDuration records sweep latency in seconds.
func (m *SweepMetrics) ObserveRunDuration(duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
}

// IncRunError increments the sweep error counter with classification.
func (m *SweepMetrics) IncRunError(err error) {
	if m == nil || m.runErrors == nil || err == nil {
		return
	}
	m.runErrors.WithLabelValues(classifySweepError(err)).Inc()
}

// AddSwept adds refreshed assessments to the throughput counter.
func (m *SweepMetrics) AddSwept(count int) {
	if m == nil || m.swept == nil || count <= 0 {
		return
	}
	m.swept.Add(float64(count))
}

// IncSweepError counts one assessment the sweep could not refresh.
func (m *SweepMetrics) IncSweepError() {
	if m == nil || m.sweepErrors == nil {
		return
	}
	m.sweepErrors.Inc()
}

// ObserveRunLoopLag records lag between the scheduled tick and the run start.
func (m *SweepMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil || m.runLoopLag == nil {
		return
	}
	lag := duration
	if lag < 0 {
		lag = 0
	}
	m.runLoopLag.Observe(lag.Seconds())
}

func classifySweepError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return SweepErrorTypeDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return SweepErrorTypeDB
	}
	return SweepErrorTypeBusinessRule
}
