// Package metrics defines the Prometheus collectors shared by the pipeline,
// the model adapter and the HTTP server.
package metrics

import (
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_agent_model_calls_total",
			Help: "Model invocations by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_agent_model_call_duration_seconds",
			Help:    "Latency of a single model invocation",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"stage"},
	)

	ModelCallsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "job_agent_model_calls_in_flight",
			Help: "Model invocations currently holding an admission slot",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_agent_stage_duration_seconds",
			Help:    "Duration of a pipeline stage including retries",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
		[]string{"stage", "status"},
	)

	StageRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_agent_stage_retries_total",
			Help: "Stage-level retries by stage and reason",
		},
		[]string{"stage", "reason"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_agent_pipeline_runs_total",
			Help: "Pipeline operations by operation and result kind",
		},
		[]string{"operation", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_agent_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

// ObserveStage records the duration of one stage run. The status label is
// "ok" or the error kind.
func ObserveStage(stage apperrors.Stage, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = string(apperrors.KindOf(err))
	}
	StageDuration.WithLabelValues(string(stage), status).Observe(time.Since(start).Seconds())
}
