// Package telemetry provides application-level observability for the NexusML
// inference gateway.
//
// All metrics are registered against the default Prometheus registry and
// exposed on the side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<NEXUS_TELEMETRY_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not served by the Gin router, so it is
// never reachable through the public API ingress path.
//
// HTTP metrics label by the Gin route template (e.g. /v1/predict), not the raw
// request URL, to keep label cardinality bounded.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexus_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Batching metrics, maintained by the request batcher.
//
// Average observed batch size over a window is
// rate(nexus_batch_size_sum[5m]) / rate(nexus_batch_size_count[5m]).
var (
	InferenceRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_inference_requests_total",
			Help: "Total number of inference requests submitted to the batcher.",
		},
	)

	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_batches_total",
			Help: "Total number of batches dispatched to the model-execution backend.",
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexus_batch_size",
			Help:    "Distribution of dispatched batch sizes.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	BatchItemErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_batch_item_errors_total",
			Help: "Total number of per-item prediction failures inside otherwise successful batches.",
		},
	)
)

// Model lifecycle metrics.
var (
	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexus_model_loaded",
			Help: "1 when a model artifact is loaded and servable, 0 otherwise.",
		},
	)

	ModelLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexus_model_load_duration_seconds",
			Help:    "Time spent resolving, downloading, and loading the model artifact at startup.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
)
