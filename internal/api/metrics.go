package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prediction collectors on a private registry so tests can
// create as many services as they need.
type Metrics struct {
	registry *prometheus.Registry

	predictions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	latency     prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "churn_predictions_total",
			Help: "Completed churn predictions by outcome.",
		}, []string{"outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "churn_prediction_errors_total",
			Help: "Requests that did not produce a prediction, by reason.",
		}, []string{"reason"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "churn_prediction_duration_seconds",
			Help:    "Time spent encoding, scaling and classifying one record.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.predictions,
		m.rejections,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observePrediction(outcome string, elapsed time.Duration) {
	m.predictions.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

func (m *Metrics) observeRejection(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
