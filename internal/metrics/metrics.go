// Package metrics holds the prometheus collectors for willowcast.
// All counters here are advisory: nothing in the pipeline branches on them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the process-wide registry served at /metrics.
var Registry = prometheus.NewRegistry()

var (
	// FetchAttempts counts individual HTTP fetch attempts by outcome ("ok" / "error").
	// A single logical fetch with retries contributes one sample per attempt.
	FetchAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "willowcast",
		Name:      "fetch_attempts_total",
		Help:      "Upstream fetch attempts by outcome",
	}, []string{"outcome"})

	// PipelineRuns counts full schedule pipeline runs by outcome ("ok" / "error").
	PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "willowcast",
		Name:      "pipeline_runs_total",
		Help:      "Schedule pipeline runs by outcome",
	}, []string{"outcome"})

	// StreamsResolved counts manifest resolutions that produced a playable URL,
	// by stream language label.
	StreamsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "willowcast",
		Name:      "streams_resolved_total",
		Help:      "Resolved live stream URLs by language",
	}, []string{"language"})

	// EventsDropped counts raw feed records dropped because they could not be mapped.
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "willowcast",
		Name:      "events_dropped_total",
		Help:      "Feed records dropped due to mapping failures",
	})

	// PipelineDuration observes wall-clock time of a pipeline run.
	PipelineDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "willowcast",
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent running the full schedule pipeline",
	})
)

func init() {
	Registry.MustRegister(FetchAttempts, PipelineRuns, StreamsResolved, EventsDropped, PipelineDuration)
}

// Handler returns the /metrics HTTP handler for Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
