package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xenopark_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xenopark_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})
)

// HTTPRequestStarted raises the in-flight gauge. Pair with ObserveHTTPRequest.
func HTTPRequestStarted() {
	httpRequestsInFlight.Inc()
}

// ObserveHTTPRequest records a finished request against its route pattern.
func ObserveHTTPRequest(method, route, status string, seconds float64) {
	httpRequestsInFlight.Dec()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
