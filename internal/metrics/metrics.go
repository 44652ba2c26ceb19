package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_assistant_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inbox_assistant_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	RelayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_assistant_relay_requests_total",
			Help: "Relay requests by action",
		},
		[]string{"action"},
	)

	RelayFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_assistant_relay_fallbacks_total",
			Help: "Questions answered with fallback text",
		},
		[]string{"kind"}, // "no_answer" or "transport"
	)

	RemoteQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inbox_assistant_remote_query_duration_seconds",
			Help:    "Latency of the remote query endpoint",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_assistant_store_errors_total",
			Help: "Transcript store operations that failed",
		},
		[]string{"op"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inbox_assistant_websocket_connections",
			Help: "Open message port connections",
		},
	)
)
