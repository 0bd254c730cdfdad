package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	swapTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_transitions_total",
			Help: "Swap offers that entered a status",
		},
		[]string{"to"},
	)

	proposeRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_propose_rejections_total",
			Help: "Swap proposals rejected, by error code",
		},
		[]string{"code"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		swapTransitions,
		proposeRejections,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one handled HTTP request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func ObserveRequest(path, method string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(path, method).Observe(elapsed.Seconds())
}

// RecordTransition counts an offer entering status to. Creation counts as
// entering pending.
func RecordTransition(to string) {
	swapTransitions.WithLabelValues(to).Inc()
}

func RecordProposeRejection(code string) {
	proposeRejections.WithLabelValues(code).Inc()
}
