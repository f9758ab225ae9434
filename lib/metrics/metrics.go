package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Runs started, completed and cancelled
	RunTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulab_run_transitions_total",
			Help: "Total number of run lifecycle transitions",
		},
		[]string{"transition"}, // started, completed, cancelled
	)

	// Advance attempts refused because the active step was not valid
	StepRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formulab_step_rejections_total",
			Help: "Total number of refused step advances by step type",
		},
		[]string{"step_type"},
	)

	// Countdown timers that reached zero
	TimersCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formulab_timers_completed_total",
			Help: "Total number of timer steps whose countdown reached zero",
		},
	)

	// Wall-clock duration of completed runs
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formulab_run_duration_seconds",
			Help:    "Duration of completed runs in seconds",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10), // 30s to ~4h
		},
	)

	// Formulation drafts saved back to projects
	DraftsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formulab_drafts_saved_total",
			Help: "Total number of formulation drafts saved",
		},
	)

	// HTTP request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formulab_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordRunTransition increments the run transition counter
func RecordRunTransition(transition string) {
	RunTransitions.WithLabelValues(transition).Inc()
}

// RecordStepRejection increments the refused advance counter for a step type
func RecordStepRejection(stepType string) {
	StepRejections.WithLabelValues(stepType).Inc()
}

// RecordRunDuration observes a completed run's duration
func RecordRunDuration(d time.Duration) {
	RunDuration.Observe(d.Seconds())
}

// RecordHTTPRequestDuration records HTTP request latency
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
