package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exported by the client:
//   - portal_api_requests_total{endpoint, status} (Counter)
//   - portal_api_request_duration_seconds{endpoint} (Histogram)
//   - portal_api_errors_total{class} (Counter)
//   - portal_api_retries_total{endpoint} (Counter)
//   - portal_api_shared_requests_total{endpoint} (Counter): detail GETs served by an in-flight duplicate
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	retries  *prometheus.CounterVec
	shared   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_api_requests_total",
			Help: "Total API requests by endpoint and HTTP status",
		}, []string{"endpoint", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_api_request_duration_seconds",
			Help:    "API request duration by endpoint",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_api_errors_total",
			Help: "API errors by class (client, server, network, decode)",
		}, []string{"class"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_api_retries_total",
			Help: "Retry attempts by endpoint",
		}, []string{"endpoint"}),
		shared: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_api_shared_requests_total",
			Help: "Detail requests answered by an identical in-flight request",
		}, []string{"endpoint"}),
	}
}
