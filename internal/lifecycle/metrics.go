package lifecycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/errors"
)

// MetricsNamespace prefixes every injecteur metric.
const MetricsNamespace = "injecteur"

// Metrics collects metrics about the initialization pipeline and the run.
// Implementations can export them to Prometheus or any other backend.
type Metrics interface {
	// PhaseCompleted is called after each successful phase.
	PhaseCompleted(phase constants.Phase, duration time.Duration)

	// InitFailed is called once when a phase aborts the pipeline.
	InitFailed(err *errors.LifecycleError)

	// StepRecorded is called for each recorded step.
	StepRecorded(status constants.StepStatus)

	// RunFinished is called with the final status of the run.
	RunFinished(status constants.StepStatus, duration time.Duration)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

var _ Metrics = (*NoopMetrics)(nil)

// PhaseCompleted implements Metrics.
func (NoopMetrics) PhaseCompleted(constants.Phase, time.Duration) {}

// InitFailed implements Metrics.
func (NoopMetrics) InitFailed(*errors.LifecycleError) {}

// StepRecorded implements Metrics.
func (NoopMetrics) StepRecorded(constants.StepStatus) {}

// RunFinished implements Metrics.
func (NoopMetrics) RunFinished(constants.StepStatus, time.Duration) {}

// PrometheusMetrics records into a dedicated registry, written as a node
// exporter textfile at the end of the run.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	phaseDuration *prometheus.GaugeVec
	initFailures  *prometheus.CounterVec
	steps         *prometheus.CounterVec
	runStatus     *prometheus.GaugeVec
	runDuration   prometheus.Gauge
	lastRun       prometheus.Gauge
}

var _ Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the collectors of one scenario run.
// Every series carries the scenario name as a constant label.
func NewPrometheusMetrics(scenario string) *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"scenario": scenario}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		phaseDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "phase_duration_seconds",
			Help:        "Duration of each initialization phase",
			ConstLabels: labels,
		}, []string{"phase"}),
		initFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   MetricsNamespace,
			Name:        "init_failures_total",
			Help:        "Initialization failures by domain, kind and phase",
			ConstLabels: labels,
		}, []string{"domain", "kind", "phase"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   MetricsNamespace,
			Name:        "steps_total",
			Help:        "Recorded steps by status",
			ConstLabels: labels,
		}, []string{"status"}),
		runStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "run_status",
			Help:        "1 for the final status of the last run, 0 otherwise",
			ConstLabels: labels,
		}, []string{"status"}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "run_duration_seconds",
			Help:        "Sum of the step durations of the last run",
			ConstLabels: labels,
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   MetricsNamespace,
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time at which the last run finished",
			ConstLabels: labels,
		}),
	}
}

// PhaseCompleted implements Metrics.
func (m *PrometheusMetrics) PhaseCompleted(phase constants.Phase, duration time.Duration) {
	m.phaseDuration.WithLabelValues(string(phase)).Set(duration.Seconds())
}

// InitFailed implements Metrics.
func (m *PrometheusMetrics) InitFailed(err *errors.LifecycleError) {
	m.initFailures.WithLabelValues(string(err.Domain), string(err.Kind), err.Phase).Inc()
}

// StepRecorded implements Metrics.
func (m *PrometheusMetrics) StepRecorded(status constants.StepStatus) {
	m.steps.WithLabelValues(status.String()).Inc()
}

// RunFinished implements Metrics.
func (m *PrometheusMetrics) RunFinished(status constants.StepStatus, duration time.Duration) {
	for _, s := range []constants.StepStatus{
		constants.StatusSuccess, constants.StatusWarning, constants.StatusFailure, constants.StatusUnknown,
	} {
		value := 0.0
		if s == status {
			value = 1
		}
		m.runStatus.WithLabelValues(s.String()).Set(value)
	}
	m.runDuration.Set(duration.Seconds())
	m.lastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the collected metrics to path in the text
// exposition format.
func (m *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
