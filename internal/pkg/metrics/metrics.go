// Package metrics provides Prometheus metrics for the snowviz backend
// (RED + warehouse fetch + graph assembly). Scrapeable at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "snowviz"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// FetchDurationSeconds is warehouse listing latency per entity kind.
	FetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "warehouse_fetch_duration_seconds",
			Help:      "Warehouse listing query duration in seconds by entity kind.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"kind"},
	)

	// FetchFailuresTotal counts failed listing queries by entity kind.
	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warehouse_fetch_failures_total",
			Help:      "Total number of failed warehouse listing queries by entity kind.",
		},
		[]string{"kind"},
	)

	// GraphBuildDurationSeconds is end-to-end graph assembly latency.
	GraphBuildDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_build_duration_seconds",
			Help:      "Graph assembly duration in seconds (fetch through layout).",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)

	// DanglingEdgesDroppedTotal counts edges pruned by reference validation.
	DanglingEdgesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_dangling_edges_dropped_total",
			Help:      "Total number of edges dropped because an endpoint node did not exist.",
		},
	)

	// GraphCacheHitsTotal counts graph cache hits.
	GraphCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_hits_total",
			Help:      "Total number of graph cache hits.",
		},
	)

	// GraphCacheMissesTotal counts graph cache misses.
	GraphCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_misses_total",
			Help:      "Total number of graph cache misses.",
		},
	)
)
