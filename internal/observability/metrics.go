// Package observability exposes Prometheus metrics for generation runs and the HTTP API.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogsmith"

// Topic outcome labels.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

var (
	// RunsTotal counts generation runs by kind and result.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_runs_total",
			Help:      "Total number of generation runs",
		},
		[]string{"kind", "status"},
	)

	// RunDuration measures how long a generation run takes.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_run_duration_seconds",
			Help:      "Duration of generation runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 240, 480},
		},
		[]string{"kind"},
	)

	// TopicsTotal counts per-topic outcomes.
	TopicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_topics_total",
			Help:      "Total number of topics processed by outcome",
		},
		[]string{"outcome"},
	)

	// ImagesTotal counts image generation attempts.
	ImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_images_total",
			Help:      "Total number of image generation attempts",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal counts API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPRequestDuration measures API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRun records a finished generation run.
func RecordRun(kind string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	RunsTotal.WithLabelValues(kind, status).Inc()
	RunDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordTopic records one topic outcome.
func RecordTopic(outcome string) {
	TopicsTotal.WithLabelValues(outcome).Inc()
}

// RecordImage records whether an image came back.
func RecordImage(ok bool) {
	status := "ok"
	if !ok {
		status = "empty"
	}
	ImagesTotal.WithLabelValues(status).Inc()
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, route string, code int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
