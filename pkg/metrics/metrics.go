// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "heather",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "heather",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	GeminiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "heather",
		Name:      "gemini_requests_total",
		Help:      "Gemini generateContent attempts by outcome.",
	}, []string{"outcome"})

	GeminiDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "heather",
		Name:      "gemini_request_duration_seconds",
		Help:      "Latency of a complete analysis including retries.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45},
	})

	ProfileResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "heather",
		Name:      "profile_resolutions_total",
		Help:      "Profile lookups by result (found, not_found, error, timeout).",
	}, []string{"result"})
)
