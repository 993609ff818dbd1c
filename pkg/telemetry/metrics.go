package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for ztadmin.
type Metrics struct {
	config MetricsConfig

	// Reconciliation metrics
	reconcileRuns     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	unlinkedNetworks  prometheus.Gauge
	detailFetchFailed prometheus.Counter

	// Controller API metrics
	controllerCalls    *prometheus.CounterVec
	controllerDuration *prometheus.HistogramVec

	// World lifecycle metrics
	worldOperations *prometheus.CounterVec
	worldDuration   *prometheus.HistogramVec
	generatorRuns   *prometheus.CounterVec
	backupEntries   prometheus.Gauge
	customWorldInUse prometheus.Gauge

	// Drift detection metrics
	driftDetections prometheus.Counter

	// Error metrics
	errorsByClass *prometheus.CounterVec
	errorsByCode  *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		reconcileRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_runs_total",
				Help:      "Total number of reconciliation runs",
			},
			[]string{"status"},
		),
		reconcileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_duration_seconds",
				Help:      "Duration of reconciliation runs in seconds",
				Buckets:   buckets,
			},
		),
		unlinkedNetworks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "unlinked_networks",
				Help:      "Unlinked networks found by the last reconciliation",
			},
		),
		detailFetchFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detail_fetch_failures_total",
				Help:      "Total number of per-network detail fetch failures",
			},
		),

		controllerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "controller_calls_total",
				Help:      "Total number of controller API calls",
			},
			[]string{"operation", "status"},
		),
		controllerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "controller_call_duration_seconds",
				Help:      "Duration of controller API calls in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),

		worldOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "world_operations_total",
				Help:      "Total number of world lifecycle operations",
			},
			[]string{"operation", "status"},
		),
		worldDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "world_operation_duration_seconds",
				Help:      "Duration of world lifecycle operations in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),
		generatorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generator_runs_total",
				Help:      "Total number of world generator invocations",
			},
			[]string{"status"},
		),
		backupEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "planet_backup_entries",
				Help:      "Current number of planet backup entries on disk",
			},
		),
		customWorldInUse: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "custom_world_in_use",
				Help:      "Whether a custom world is currently active (1) or not (0)",
			},
		),

		driftDetections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "planet_drift_detections_total",
				Help:      "Total number of out-of-band planet file changes detected",
			},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.reconcileRuns,
		m.reconcileDuration,
		m.unlinkedNetworks,
		m.detailFetchFailed,
		m.controllerCalls,
		m.controllerDuration,
		m.worldOperations,
		m.worldDuration,
		m.generatorRuns,
		m.backupEntries,
		m.customWorldInUse,
		m.driftDetections,
		m.errorsByClass,
		m.errorsByCode,
	)

	return m, nil
}

// Reconciliation Metrics

// RecordReconcileRun records a completed reconciliation with its outcome.
func (m *Metrics) RecordReconcileRun(status string, duration time.Duration, unlinked, failed int) {
	if m.reconcileRuns == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(status).Inc()
	m.reconcileDuration.Observe(duration.Seconds())
	m.unlinkedNetworks.Set(float64(unlinked))
	m.detailFetchFailed.Add(float64(failed))
}

// Controller Metrics

// RecordControllerCall records one controller API call.
func (m *Metrics) RecordControllerCall(operation, status string, duration time.Duration) {
	if m.controllerCalls == nil {
		return
	}
	m.controllerCalls.WithLabelValues(operation, status).Inc()
	m.controllerDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// World Metrics

// RecordWorldOperation records a world lifecycle operation.
func (m *Metrics) RecordWorldOperation(operation, status string, duration time.Duration) {
	if m.worldOperations == nil {
		return
	}
	m.worldOperations.WithLabelValues(operation, status).Inc()
	m.worldDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGeneratorRun records one world generator invocation.
func (m *Metrics) RecordGeneratorRun(status string) {
	if m.generatorRuns == nil {
		return
	}
	m.generatorRuns.WithLabelValues(status).Inc()
}

// SetBackupEntries sets the current backup entry count.
func (m *Metrics) SetBackupEntries(count int) {
	if m.backupEntries == nil {
		return
	}
	m.backupEntries.Set(float64(count))
}

// SetCustomWorldInUse records whether a custom world is active.
func (m *Metrics) SetCustomWorldInUse(inUse bool) {
	if m.customWorldInUse == nil {
		return
	}
	if inUse {
		m.customWorldInUse.Set(1)
	} else {
		m.customWorldInUse.Set(0)
	}
}

// RecordDriftDetection increments the drift detection counter.
func (m *Metrics) RecordDriftDetection() {
	if m.driftDetections == nil {
		return
	}
	m.driftDetections.Inc()
}

// Error Metrics

// RecordError records an error by its class and code.
func (m *Metrics) RecordError(errorClass, errorCode string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
	if errorCode != "" {
		m.errorsByCode.WithLabelValues(errorCode).Inc()
	}
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
