// Package metrics vends the Prometheus collectors of chronos service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chronos"

var (
	// HTTPRequestDuration tracks request latency.
	// Labels: router (reader, writer), route, status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"router", "route", "status"},
	)

	// SummaryRequests counts summary requests.
	// Labels: outcome (void, generated, busy)
	SummaryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "requests_total",
			Help:      "Total number of summary requests by outcome",
		},
		[]string{"outcome"},
	)

	// OracleCalls counts calls to the text generation API.
	// Labels: kind (summary, epitaph), result (success, error, silent)
	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Total number of text generation calls by result",
		},
		[]string{"kind", "result"},
	)

	// OracleCallDuration tracks how long text generation takes.
	OracleCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Duration of text generation calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	// OracleCacheLookups counts summary cache lookups.
	// Labels: tier (local, shared), result (hit, miss)
	OracleCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "cache_lookups_total",
			Help:      "Total number of summary cache lookups by cache tier and result",
		},
		[]string{"tier", "result"},
	)

	// CapsulesCreated counts capsules ignited through the purchase wizard.
	// Labels: tier
	CapsulesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capsules",
			Name:      "created_total",
			Help:      "Total number of capsules created by visibility tier",
		},
		[]string{"tier"},
	)
)
