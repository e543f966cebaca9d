package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "road_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the scoring service.
type Metrics struct {
	Predictions        *prometheus.CounterVec // labels: outcome={success,invalid,error,unavailable}
	PredictionDuration prometheus.Histogram

	// Model artifact metrics.
	ModelLoaded  prometheus.Gauge
	ModelReloads *prometheus.CounterVec // labels: result={success,error}

	BatchRows        *prometheus.CounterVec // labels: outcome={scored,skipped}
	PredictionEvents *prometheus.CounterVec // labels: outcome={published,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Predictions,
		m.PredictionDuration,
		m.ModelLoaded,
		m.ModelReloads,
		m.BatchRows,
		m.PredictionEvents,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time from payload receipt to scored result, successful predictions only.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when a model artifact is serving, 0 otherwise.",
		}),
		ModelReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_reloads_total",
			Help:      "Model artifact reloads triggered by file changes, by result.",
		}, []string{"result"}),
		BatchRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_rows_total",
			Help:      "Batch CSV rows by outcome.",
		}, []string{"outcome"}),
		PredictionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_events_total",
			Help:      "Prediction events sent to the audit topic, by outcome.",
		}, []string{"outcome"}),
	}
}
